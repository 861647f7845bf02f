package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryActiveTripCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryActiveTripCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	got, err := c.GetActiveTrip(ctx, "driver-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.SetActiveTrip(ctx, "driver-1", "trip-1"))
	got, err = c.GetActiveTrip(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, "trip-1", got)

	now = now.Add(2 * time.Minute)
	got, err = c.GetActiveTrip(ctx, "driver-1")
	require.NoError(t, err)
	assert.Empty(t, got, "entry should expire")

	require.NoError(t, c.SetActiveTrip(ctx, "driver-1", "trip-2"))
	require.NoError(t, c.ClearActiveTrip(ctx, "driver-1"))
	got, err = c.GetActiveTrip(ctx, "driver-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
