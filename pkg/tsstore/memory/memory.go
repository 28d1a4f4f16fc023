// Package memory implements tsstore.Store in process memory. Data is lost on
// restart; useful for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
)

// Store keeps all rows per entity in a slice guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	rows map[string][]telemetry.Row

	// RangeCalls counts Range invocations; tests assert on it to verify
	// that ownership failures short-circuit before any store query.
	RangeCalls int
}

// New creates an in-memory store.
func New() *Store {
	return &Store{rows: make(map[string][]telemetry.Row)}
}

func entityKey(entityType, entityID string) string {
	return entityType + "|" + entityID
}

// WriteRows appends rows for an entity.
func (s *Store) WriteRows(ctx context.Context, entityType, entityID string, rows []telemetry.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := entityKey(entityType, entityID)
	s.rows[k] = append(s.rows[k], rows...)
	return nil
}

// Range returns rows matching the query in insertion order.
func (s *Store) Range(ctx context.Context, q tsstore.RangeQuery) ([]telemetry.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RangeCalls++

	var results []telemetry.Row
	for _, row := range s.rows[entityKey(q.EntityType, q.EntityID)] {
		if row.Key == q.Key && row.Partition == q.Partition {
			results = append(results, row)
		}
	}
	return results, nil
}

// Keys returns the distinct telemetry keys for an entity, sorted.
func (s *Store) Keys(ctx context.Context, entityType, entityID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, row := range s.rows[entityKey(entityType, entityID)] {
		seen[row.Key] = true
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Partitions returns the distinct (key, partition) pairs for the given keys.
func (s *Store) Partitions(ctx context.Context, entityType, entityID string, keys []string) ([]tsstore.KeyPartition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	seen := make(map[tsstore.KeyPartition]bool)
	for _, row := range s.rows[entityKey(entityType, entityID)] {
		if len(wanted) > 0 && !wanted[row.Key] {
			continue
		}
		seen[tsstore.KeyPartition{Key: row.Key, Partition: row.Partition}] = true
	}

	results := make([]tsstore.KeyPartition, 0, len(seen))
	for kp := range seen {
		results = append(results, kp)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Key != results[j].Key {
			return results[i].Key < results[j].Key
		}
		return results[i].Partition < results[j].Partition
	})
	return results, nil
}

// Latest returns the newest row per key, sorted by key.
func (s *Store) Latest(ctx context.Context, entityType, entityID string) ([]telemetry.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]telemetry.Row)
	for _, row := range s.rows[entityKey(entityType, entityID)] {
		if cur, ok := latest[row.Key]; !ok || row.TS > cur.TS {
			latest[row.Key] = row
		}
	}

	results := make([]telemetry.Row, 0, len(latest))
	for _, row := range latest {
		results = append(results, row)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results, nil
}

// Close is a no-op for memory storage.
func (s *Store) Close() error {
	return nil
}
