package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockoutStore tracks failed logins and locks per identifier (email).
type LockoutStore interface {
	// RecordFailure increments the failure count; the count expires after window.
	RecordFailure(ctx context.Context, identifier string, window time.Duration) (int, error)
	ClearFailures(ctx context.Context, identifier string) error
	Lock(ctx context.Context, identifier string, duration time.Duration) error
	// IsLocked returns true and the lock expiry when identifier is locked.
	IsLocked(ctx context.Context, identifier string) (bool, time.Time, error)
}

var recordFailureScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// RedisLockoutStore implements LockoutStore on Redis so every API replica sees the same counters.
type RedisLockoutStore struct {
	client *redis.Client
	prefix string
}

// NewRedisLockoutStore builds a store. An empty prefix uses "finance:lockout:".
func NewRedisLockoutStore(client *redis.Client, prefix string) *RedisLockoutStore {
	if prefix == "" {
		prefix = "finance:lockout:"
	}
	return &RedisLockoutStore{client: client, prefix: prefix}
}

func (s *RedisLockoutStore) failureKey(identifier string) string {
	return s.prefix + "failures:" + identifier
}

func (s *RedisLockoutStore) lockKey(identifier string) string {
	return s.prefix + "locked:" + identifier
}

// RecordFailure atomically increments and, on first failure, arms the window expiry.
func (s *RedisLockoutStore) RecordFailure(ctx context.Context, identifier string, window time.Duration) (int, error) {
	result, err := recordFailureScript.Run(ctx, s.client, []string{s.failureKey(identifier)}, window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("lockout: record failure: %w", err)
	}
	return result, nil
}

// ClearFailures resets the failure count.
func (s *RedisLockoutStore) ClearFailures(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, s.failureKey(identifier)).Err(); err != nil {
		return fmt.Errorf("lockout: clear failures: %w", err)
	}
	return nil
}

// Lock locks identifier for duration and resets its failure count.
func (s *RedisLockoutStore) Lock(ctx context.Context, identifier string, duration time.Duration) error {
	until := time.Now().Add(duration).Unix()
	if err := s.client.Set(ctx, s.lockKey(identifier), until, duration).Err(); err != nil {
		return fmt.Errorf("lockout: lock: %w", err)
	}
	return s.ClearFailures(ctx, identifier)
}

// IsLocked checks the lock key.
func (s *RedisLockoutStore) IsLocked(ctx context.Context, identifier string) (bool, time.Time, error) {
	val, err := s.client.Get(ctx, s.lockKey(identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("lockout: check lock: %w", err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("lockout: parse lock time: %w", err)
	}
	until := time.Unix(unix, 0)
	if time.Now().After(until) {
		return false, time.Time{}, nil
	}
	return true, until, nil
}
