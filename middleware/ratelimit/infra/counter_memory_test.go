package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCounterStore_IncrAndExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryCounterStore(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	n, err := s.Incr(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	ok, err := s.Expire(ctx, "k", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	n, err = s.Incr(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	ttl, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, ttl)

	now = now.Add(10 * time.Second)

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)

	n, err = s.Incr(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestMemoryCounterStore_TTLConventions(t *testing.T) {
	s := NewMemoryCounterStore()
	ctx := context.Background()

	ttl, err := s.TTL(ctx, "missing")
	require.NoError(t, err)
	require.Equal(t, time.Duration(-2), ttl)

	_, err = s.Incr(ctx, "k")
	require.NoError(t, err)
	ttl, err = s.TTL(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), ttl)

	ok, err := s.Expire(ctx, "missing", time.Second)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCounterStore_Del(t *testing.T) {
	s := NewMemoryCounterStore()
	ctx := context.Background()

	_, err := s.Incr(ctx, "k")
	require.NoError(t, err)

	deleted, err := s.Del(ctx, "k")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = s.Del(ctx, "k")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestMemoryCounterStore_CleanupRemovesExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryCounterStore(WithClock(func() time.Time { return now }), WithCounterCleanupEvery(0))
	ctx := context.Background()

	for _, k := range []string{"a", "b"} {
		_, err := s.Incr(ctx, k)
		require.NoError(t, err)
	}
	_, err := s.Expire(ctx, "a", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	s.Cleanup()

	require.Equal(t, 1, s.Len())
}
