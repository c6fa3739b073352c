// SPDX-License-Identifier: MIT

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocker(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisLocker) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, &RedisLocker{client: client, ttl: ttl, logger: zerolog.Nop()}
}

func TestAcquireRelease(t *testing.T) {
	_, locker := setupLocker(t, time.Minute)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)

	// same album is busy while held
	_, ok2, err := locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	assert.False(t, ok2)

	// a different album is unaffected
	release2, ok3, err := locker.Acquire(ctx, "A2")
	require.NoError(t, err)
	assert.True(t, ok3)
	release2()

	release()

	// released lease can be re-acquired
	release3, ok4, err := locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, ok4)
	release3()
}

func TestLeaseExpires(t *testing.T) {
	mr, locker := setupLocker(t, time.Second)
	ctx := context.Background()

	_, ok, err := locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	release, ok, err := locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, ok, "lease should expire without an explicit release")
	release()
}

func TestReleaseIsOwnershipChecked(t *testing.T) {
	mr, locker := setupLocker(t, time.Second)
	ctx := context.Background()

	releaseOld, ok, err := locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)

	// lease expires, another run takes it
	mr.FastForward(2 * time.Second)
	_, ok, err = locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	require.True(t, ok)

	// stale release must not free the new owner's lease
	releaseOld()
	_, ok, err = locker.Acquire(ctx, "A1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopAlwaysGrants(t *testing.T) {
	var l Locker = Noop{}

	release1, ok1, err1 := l.Acquire(context.Background(), "A1")
	release2, ok2, err2 := l.Acquire(context.Background(), "A1")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.True(t, ok1)
	assert.True(t, ok2)
	release1()
	release2()
}
