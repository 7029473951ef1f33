package services

import (
	"hash/fnv"
	"sync"

	"golang.org/x/time/rate"
)

const limiterShards = 32

// RateLimiter enforces a per-user request rate with a token bucket per
// tenant:user key. Keys are spread over a fixed set of shards so hot
// tenants do not serialize on one mutex.
type RateLimiter struct {
	shards [limiterShards]*limiterShard
	limit  rate.Limit
	burst  int
}

type limiterShard struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter builds a limiter allowing perMinute requests with the
// given burst headroom per key.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = perMinute
	}
	rl := &RateLimiter{
		limit: rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
	}
	for i := range rl.shards {
		rl.shards[i] = &limiterShard{limiters: make(map[string]*rate.Limiter)}
	}
	return rl
}

// Allow reports whether one more request for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiterFor(key).Allow()
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	shard := rl.shards[shardIndex(key)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	lim, ok := shard.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rl.limit, rl.burst)
		shard.limiters[key] = lim
	}
	return lim
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % limiterShards
}
