package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AcquireLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewStorageService(nil, rdb, nil)
	ctx := context.Background()

	ok, err := s.AcquireLock(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AcquireLock(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "the second holder must be refused")

	holder, err := s.LockHolder(ctx, "sla-sweep")
	require.NoError(t, err)
	assert.NotEmpty(t, holder)

	mr.FastForward(2 * time.Minute)

	ok, err = s.AcquireLock(ctx, "sla-sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "an expired lock can be taken again")
}

func TestService_AcquireLock_NoRedis(t *testing.T) {
	s := NewStorageService(nil, nil, nil)
	_, err := s.AcquireLock(context.Background(), "sla-sweep", time.Minute)
	assert.ErrorIs(t, err, ErrNoRedis)
}
