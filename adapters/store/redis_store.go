package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
	"github.com/redis/go-redis/v9"
)

// hitScript runs the fixed-window transition atomically.
// KEYS[1] counter hash, ARGV: max, window ms, now ms.
// Returns {allowed, count, reset ms}.
var hitScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset') or '0')
if reset == 0 or now > reset then
  count = 0
  reset = now + window
end
if count >= max then
  return {0, count, reset}
end
count = count + 1
redis.call('HSET', KEYS[1], 'count', count, 'reset', reset)
redis.call('PEXPIREAT', KEYS[1], reset + 1)
return {1, count, reset}
`)

// RedisStore is a Redis implementation of the RateLimitStore interface.
// Instances sharing a Redis share counters.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ ports.RateLimitStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store. prefix separates quota classes.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Hit admits or denies one request for wallet
func (s *RedisStore) Hit(ctx context.Context, wallet string, limit core.RateLimit, now time.Time) (core.RateDecision, error) {
	res, err := hitScript.Run(ctx, s.client, []string{s.key(wallet)},
		limit.Max, limit.Window.Milliseconds(), now.UnixMilli()).Int64Slice()
	if err != nil {
		return core.RateDecision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(res) != 3 {
		return core.RateDecision{}, fmt.Errorf("unexpected rate limit script reply %v", res)
	}

	decision := core.RateDecision{
		Allowed:   res[0] == 1,
		ResetTime: time.UnixMilli(res[2]),
	}
	if decision.Allowed {
		decision.Remaining = limit.Max - int(res[1])
	}
	return decision, nil
}

// Peek returns the budget left for wallet without consuming it
func (s *RedisStore) Peek(ctx context.Context, wallet string, limit core.RateLimit, now time.Time) (int, error) {
	vals, err := s.client.HMGet(ctx, s.key(wallet), "count", "reset").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read rate limit entry: %w", err)
	}

	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return limit.Max, nil
	}
	count, err := parseInt(vals[0])
	if err != nil {
		return 0, fmt.Errorf("invalid rate limit count: %w", err)
	}
	reset, err := parseInt(vals[1])
	if err != nil {
		return 0, fmt.Errorf("invalid rate limit reset: %w", err)
	}
	if reset == 0 || now.UnixMilli() > reset {
		return limit.Max, nil
	}
	return max(0, limit.Max-int(count)), nil
}

func parseInt(v interface{}) (int64, error) {
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.ParseInt(str, 10, 64)
}

func (s *RedisStore) key(wallet string) string {
	return s.prefix + core.NormalizeAddress(wallet)
}
