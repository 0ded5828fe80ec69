package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"sportsuid/internal/uid/models"
	"sportsuid/pkg/platform/sentinel"
)

const defaultKeyPrefix = "sportsuid:seq:"

// incrementScript increments KEYS[1] unless it has reached ARGV[1], in which
// case it returns -1. Redis runs scripts atomically, so the compare and the
// increment cannot interleave with another caller.
var incrementScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur >= tonumber(ARGV[1]) then
	return -1
end
return redis.call('INCR', KEYS[1])
`)

// seedScript raises KEYS[1] to ARGV[1] if it is lower.
var seedScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if floor > cur then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return cur
`)

// RedisStore keeps counters as plain Redis integers under
// "sportsuid:seq:<partition>". Persistence guarantees are those of the Redis
// deployment: run it with AOF if counters must survive a restart.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(key models.PartitionKey) string {
	return s.prefix + key.String()
}

func (s *RedisStore) Increment(ctx context.Context, key models.PartitionKey) (int, error) {
	value, err := incrementScript.Run(ctx, s.client, []string{s.key(key)}, key.Capacity()).Int()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, classifyRedis(ctx, err))
	}
	if value < 0 {
		return 0, fmt.Errorf("increment %s: %w", key, sentinel.ErrExhausted)
	}
	return value, nil
}

func (s *RedisStore) Current(ctx context.Context, key models.PartitionKey) (int, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("current %s: %w", key, classifyRedis(ctx, err))
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("current %s: corrupt counter %q: %w", key, raw, err)
	}
	return value, nil
}

func (s *RedisStore) Seed(ctx context.Context, key models.PartitionKey, floor int) error {
	if err := seedScript.Run(ctx, s.client, []string{s.key(key)}, clampFloor(key, floor)).Err(); err != nil {
		return fmt.Errorf("seed %s: %w", key, classifyRedis(ctx, err))
	}
	return nil
}

// classifyRedis marks connection-level failures as sentinel.ErrUnavailable.
// Errors the server replied with (script errors, WRONGTYPE) are returned as is.
func classifyRedis(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	var serverErr redis.Error
	if errors.As(err, &serverErr) {
		return err
	}
	return errors.Join(sentinel.ErrUnavailable, err)
}
