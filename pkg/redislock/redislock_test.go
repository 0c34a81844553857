package redislock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, ttl time.Duration) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, ttl), mr
}

func TestSlotKey(t *testing.T) {
	l, _ := newTestLocker(t, time.Second)
	assert.Equal(t, "spa:slotlock:2025-06-10:10:00", l.SlotKey("2025-06-10", "10:00"))
}

func TestAcquireSlot_ExclusiveUntilReleased(t *testing.T) {
	l, mr := newTestLocker(t, 5*time.Second)
	ctx := context.Background()

	release, err := l.AcquireSlot(ctx, "2025-06-10", "10:00")
	require.NoError(t, err)
	assert.True(t, mr.Exists(l.SlotKey("2025-06-10", "10:00")))

	_, err = l.AcquireSlot(ctx, "2025-06-10", "10:00")
	assert.ErrorIs(t, err, ErrLocked)

	// Other slots are independent
	otherRelease, err := l.AcquireSlot(ctx, "2025-06-10", "11:00")
	require.NoError(t, err)
	require.NoError(t, otherRelease(ctx))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(l.SlotKey("2025-06-10", "10:00")))

	again, err := l.AcquireSlot(ctx, "2025-06-10", "10:00")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestAcquire_ExpiresAfterTTL(t *testing.T) {
	l, mr := newTestLocker(t, 2*time.Second)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(3 * time.Second)

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRelease_DoesNotDeleteForeignLock(t *testing.T) {
	l, mr := newTestLocker(t, 2*time.Second)
	ctx := context.Background()

	staleRelease, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(3 * time.Second)
	_, err = l.Acquire(ctx, "k")
	require.NoError(t, err)

	// The first holder's lease expired; releasing it must leave the new holder's lock intact
	require.NoError(t, staleRelease(ctx))
	assert.True(t, mr.Exists("k"))
}

func TestNew_DefaultTTL(t *testing.T) {
	l := New(nil, 0)
	assert.Equal(t, defaultTTL, l.ttl)
}

func TestAcquire_RedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	l := New(rdb, time.Second)

	_, err := l.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocked)
	assert.Contains(t, err.Error(), "failed to acquire lock")
}
