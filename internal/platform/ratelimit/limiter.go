// Package ratelimit 是 Redis 上的滑动窗口计数，多个实例共享同一个窗口。
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule 是一条限流规则：Window 内最多 Limit 次。
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Decision 是一次检查的结果；RetryAfter 只在被拒绝时有意义。
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	client redis.Scripter
	seq    atomic.Uint64
}

func NewLimiter(client redis.Scripter) *Limiter {
	return &Limiter{client: client}
}

// 有序集合里每个请求一个 member，score 是毫秒时间戳。
// 超限时撤回本次 member，按最老的一条算出还要等多久。
// 返回 {allowed, remaining, retry_after_ms}
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
redis.call("ZADD", key, now, member)
local count = redis.call("ZCARD", key)
redis.call("PEXPIRE", key, window)

if count <= limit then
  return {1, limit - count, 0}
end

redis.call("ZREM", key, member)
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] == nil then
  return {0, 0, window}
end
local wait = tonumber(oldest[2]) + window - now
if wait < 0 then wait = 0 end
return {0, 0, wait}
`)

func Key(rule Rule, subject string) string {
	return "rl:" + rule.Name + ":" + subject
}

// Allow 给 subject（通常是客户端 IP）记一次请求。
func (l *Limiter) Allow(ctx context.Context, rule Rule, subject string) (Decision, error) {
	now := time.Now()
	// member 必须每次唯一，否则 ZADD 会覆盖；纳秒时间戳在部分平台会重复，加序号
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatUint(l.seq.Add(1), 10)

	res, err := slidingWindow.Run(ctx, l.client, []string{Key(rule, subject)},
		now.UnixMilli(), rule.Window.Milliseconds(), rule.Limit, member).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", res)
	}
	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}
