package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// ClickEvent 是一次短链跳转
type ClickEvent struct {
	ShortID   string    `json:"short_id"`
	ClickedAt time.Time `json:"clicked_at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Referer   string    `json:"referer"` // 从哪个页面点击过来的
}

// Collector 异步收集点击事件，Collect 不能阻塞跳转请求。
type Collector interface {
	Collect(event ClickEvent)
	Close()
}

// ChannelCollector 基于 channel 的进程内收集器，由 Consumer 消费。
type ChannelCollector struct {
	mu      sync.RWMutex
	ch      chan ClickEvent
	closed  bool
	dropped atomic.Uint64
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{ch: make(chan ClickEvent, bufferSize)}
}

func (c *ChannelCollector) Collect(event ClickEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
		c.dropped.Add(1)
	}
}

// Dropped 返回因缓冲区满而丢弃的事件数。
func (c *ChannelCollector) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *ChannelCollector) Events() <-chan ClickEvent {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Discard 丢弃所有事件；没有数据库时使用。
type Discard struct{}

func (Discard) Collect(ClickEvent) {}
func (Discard) Close()             {}
