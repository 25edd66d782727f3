package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryCacheManager_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, float64]("widths", DefaultExpiration, DefaultCleanupInterval)

	c.Set(ctx, "mono|hello", 40.0, time.Minute)

	got, ok := c.Get(ctx, "mono|hello")
	require.True(t, ok)
	require.Equal(t, 40.0, got)
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, float64]("widths", DefaultExpiration, DefaultCleanupInterval)

	_, ok := c.Get(ctx, "absent")
	require.False(t, ok)
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, int]("widths", DefaultExpiration, DefaultCleanupInterval)

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "b", 2, time.Minute)
	require.NoError(t, c.Delete(ctx, "a", "missing"))

	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
	got, ok := c.Get(ctx, "b")
	require.True(t, ok)
	require.Equal(t, 2, got)
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, int]("widths", DefaultExpiration, DefaultCleanupInterval)

	c.Set(ctx, "a", 1, time.Minute)
	require.NoError(t, c.Flush(ctx))

	_, ok := c.Get(ctx, "a")
	require.False(t, ok)
}
