package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
)

func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(i int64) *int64     { return &i }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenPersistent(t *testing.T) {
	s, err := New(Config{Path: t.TempDir(), MaxMemoryMB: 48})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestWriteAndRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteRows(ctx, tsstore.EntityDevice, "dev-1", []telemetry.Row{
		{Key: "temperature", Partition: 100, TS: 1000, DblV: f64Ptr(21.5)},
		{Key: "temperature", Partition: 100, TS: 2000, DblV: f64Ptr(22.0)},
		{Key: "temperature", Partition: 200, TS: 3000, DblV: f64Ptr(23.0)},
		{Key: "counter", Partition: 100, TS: 1000, LongV: i64Ptr(42)},
	})
	require.NoError(t, err)

	rows, err := s.Range(ctx, tsstore.RangeQuery{
		EntityType: tsstore.EntityDevice,
		EntityID:   "dev-1",
		Key:        "temperature",
		Partition:  100,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, "temperature", row.Key)
		require.Equal(t, int64(100), row.Partition)
		require.NotNil(t, row.DblV)
	}

	// A different partition is a different slice.
	rows, err = s.Range(ctx, tsstore.RangeQuery{
		EntityType: tsstore.EntityDevice,
		EntityID:   "dev-1",
		Key:        "temperature",
		Partition:  200,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 23.0, *rows[0].DblV)
}

func TestKeysPartitionsLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteRows(ctx, tsstore.EntityDevice, "dev-1", []telemetry.Row{
		{Key: "temperature", Partition: 100, TS: 2000, DblV: f64Ptr(22.0)},
		{Key: "temperature", Partition: 200, TS: 1000, DblV: f64Ptr(21.0)},
		{Key: "counter", Partition: 100, TS: 500, LongV: i64Ptr(1)},
	})
	require.NoError(t, err)

	keys, err := s.Keys(ctx, tsstore.EntityDevice, "dev-1")
	require.NoError(t, err)
	require.Equal(t, []string{"counter", "temperature"}, keys)

	pairs, err := s.Partitions(ctx, tsstore.EntityDevice, "dev-1", []string{"temperature"})
	require.NoError(t, err)
	require.Equal(t, []tsstore.KeyPartition{
		{Key: "temperature", Partition: 100},
		{Key: "temperature", Partition: 200},
	}, pairs)

	// Latest keeps the newest row per key regardless of write order.
	latest, err := s.Latest(ctx, tsstore.EntityDevice, "dev-1")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "counter", latest[0].Key)
	require.Equal(t, "temperature", latest[1].Key)
	require.Equal(t, int64(2000), latest[1].TS)
}

func TestWriteRejectsNULKey(t *testing.T) {
	s := newTestStore(t)

	err := s.WriteRows(context.Background(), tsstore.EntityDevice, "dev-1", []telemetry.Row{
		{Key: "bad\x00key", Partition: 1, TS: 1},
	})
	require.Error(t, err)
}

func TestRangeCancelledContext(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Range(ctx, tsstore.RangeQuery{
		EntityType: tsstore.EntityDevice,
		EntityID:   "dev-1",
		Key:        "temperature",
		Partition:  100,
	})
	require.Error(t, err)
}
