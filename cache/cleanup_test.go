package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanupSweepsOldDateKeys(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	m := NewMemory()

	old := "allgood:rate:db:count:2024-06-07" // three days back
	oldHour := "allgood:rate:db:count:2024-06-05-23"
	yesterday := "allgood:rate:db:count:2024-06-09"
	today := "allgood:rate:db:count:2024-06-10"
	undated := "allgood:rate:db:period"
	for _, k := range []string{old, oldHour, yesterday, today, undated} {
		require.NoError(t, m.Write(ctx, k, []byte("x"), TTLDay))
	}

	Cleanup(ctx, m, now, zap.NewNop())

	_, ok := m.Read(ctx, old)
	require.False(t, ok)
	_, ok = m.Read(ctx, oldHour)
	require.False(t, ok)
	_, ok = m.Read(ctx, yesterday)
	require.True(t, ok, "yesterday's keys must survive")
	_, ok = m.Read(ctx, today)
	require.True(t, ok)
	_, ok = m.Read(ctx, undated)
	require.True(t, ok)
}

func TestCleanupRunsOncePerDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	m := NewMemory()

	Cleanup(ctx, m, now, nil)

	// A key from three days ago written after the sweep survives until the
	// marker rolls over to the next calendar day.
	stale := "allgood:rate:db:count:2024-06-07"
	require.NoError(t, m.Write(ctx, stale, []byte("x"), TTLDay))

	Cleanup(ctx, m, now.Add(time.Hour), nil)
	_, ok := m.Read(ctx, stale)
	require.True(t, ok)

	Cleanup(ctx, m, now.AddDate(0, 0, 1), nil)
	_, ok = m.Read(ctx, stale)
	require.False(t, ok)
}
