package urlshortener

import (
	"sync"

	"github.com/sqids/sqids-go"
)

// 打乱过的字母表，避免 id 能被直接看出自增顺序
const idAlphabet = "k3G7QAe51FCsiWrNOYBUwM6XzZvdLT4j9JhyHKg2cVbxfERq0mSoI8lDpunPat"

var (
	sq     *sqids.Sqids
	sqOnce sync.Once
)

func getSqids() *sqids.Sqids {
	sqOnce.Do(func() {
		var err error
		sq, err = sqids.New(sqids.Options{
			Alphabet:  idAlphabet,
			MinLength: 3,
		})
		if err != nil {
			panic("sqids init failed: " + err.Error())
		}
	})
	return sq
}

// EncodeID 把数据库行号编码成短 id。
func EncodeID(n uint64) (string, error) {
	return getSqids().Encode([]uint64{n})
}

// DecodeID 是 EncodeID 的逆操作；不是规范编码的 id 返回 false。
func DecodeID(id string) (uint64, bool) {
	nums := getSqids().Decode(id)
	if len(nums) != 1 {
		return 0, false
	}
	// sqids 对同一个数只有一种规范编码，重新编码可排除别名
	if again, err := EncodeID(nums[0]); err != nil || again != id {
		return 0, false
	}
	return nums[0], true
}
