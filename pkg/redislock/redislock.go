// Package redislock provides short-lived mutual exclusion over booking slots across processes.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the lock
var ErrLocked = errors.New("lock is held by another booking")

const defaultTTL = 10 * time.Second

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires slot locks with SET NX PX
type Locker struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// New creates a Locker. A non-positive ttl falls back to 10s.
func New(rdb *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Locker{rdb: rdb, ttl: ttl, prefix: "spa:slotlock"}
}

// SlotKey returns the lock key for a booking slot
func (l *Locker) SlotKey(date, slotTime string) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, date, slotTime)
}

// Acquire takes the lock on key. The returned function releases it and is safe to call once the lock expired.
func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrLocked)
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}

// AcquireSlot takes the lock for the slot at date and time
func (l *Locker) AcquireSlot(ctx context.Context, date, slotTime string) (func(context.Context) error, error) {
	return l.Acquire(ctx, l.SlotKey(date, slotTime))
}
