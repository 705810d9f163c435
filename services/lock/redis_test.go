package redislock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
	logsvc "github.com/Alisaqulain/madarcrm-sub000/services/logger"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Locker) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, New(client, time.Minute, logsvc.NewNop())
}

func TestLocker_Lock(t *testing.T) {
	mr, locker := setupTestRedis(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"T1"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"T1"))

	_, err = locker.Lock(ctx, "T1")
	assert.Equal(t, demo.ErrBusy, err)

	// other tenants are independent
	unlockT2, err := locker.Lock(ctx, "T2")
	require.NoError(t, err)
	unlockT2()

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"T1"))

	unlock, err = locker.Lock(ctx, "T1")
	require.NoError(t, err)
	unlock()
}

func TestLocker_UnlockKeepsForeignToken(t *testing.T) {
	mr, locker := setupTestRedis(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "T1")
	require.NoError(t, err)

	// the lock expired and someone else took it
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set(keyPrefix+"T1", "other"))

	unlock()
	got, err := mr.Get(keyPrefix + "T1")
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}

func TestLocker_Expires(t *testing.T) {
	mr, locker := setupTestRedis(t)
	ctx := context.Background()

	_, err := locker.Lock(ctx, "T1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	unlock, err := locker.Lock(ctx, "T1")
	require.NoError(t, err)
	unlock()
}
