package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
)

// KnownIDs 记录本实例发放、预热或回源确认过的短 id。
// MightExist 为 false 只代表本实例没见过，不代表库里没有。
type KnownIDs struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	capacity uint
	added    atomic.Uint64 // 首次加入的 id 数，误判的 id 不计
	overfull atomic.Bool
}

// NewKnownIDs 按预期容量和误判率估算位数组大小。
func NewKnownIDs(capacity uint, falsePositiveRate float64) *KnownIDs {
	return &KnownIDs{
		filter:   bloom.NewWithEstimates(capacity, falsePositiveRate),
		capacity: capacity,
	}
}

func (k *KnownIDs) Add(id string) {
	k.mu.Lock()
	present := k.filter.TestAndAddString(id)
	k.mu.Unlock()
	if present {
		return
	}
	// 超出容量后误判率上升，只提醒一次
	if n := k.added.Add(1); n > uint64(k.capacity) && k.overfull.CompareAndSwap(false, true) {
		slog.Warn("known id filter over capacity, false positives will rise", "capacity", k.capacity, "ids", n)
	}
}

func (k *KnownIDs) MightExist(id string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.filter.TestString(id)
}

// Len 是加入过的不同 id 数，误判为已存在的 id 会漏计。
func (k *KnownIDs) Len() uint64 {
	return k.added.Load()
}
