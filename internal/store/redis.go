package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

// fixedWindowScript counts a hit and opens the window on the first one.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store shared by all instances.
type RateLimitRedisStore struct {
	client redis.Scripter
	prefix string
}

var _ ratelimit.Store = (*RateLimitRedisStore)(nil)

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client redis.Scripter) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

func (r *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	return fixedWindowScript.Run(ctx, r.client, []string{r.prefix + key}, window.Milliseconds()).Int64()
}
