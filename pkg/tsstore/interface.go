// Package tsstore provides the pluggable wide-column time-series store used
// for device telemetry.
//
// Rows are addressed by (entity type, entity id, key, partition) where a
// partition is a coarse time bucket. Two backends implement the Store
// interface: badger (persistent, production) and memory (tests and
// development).
package tsstore

import (
	"context"

	"github.com/telemetryhq/fleethub/pkg/telemetry"
)

// EntityDevice is the entity type under which device telemetry is stored.
const EntityDevice = "DEVICE"

// RangeQuery addresses one (key, partition) slice of an entity's history.
type RangeQuery struct {
	EntityType string
	EntityID   string
	Key        string
	Partition  int64
}

// KeyPartition names one partition holding data for a telemetry key.
type KeyPartition struct {
	Key       string `json:"key"`
	Partition int64  `json:"partition"`
}

// Store is the wide-column store abstraction.
type Store interface {
	// WriteRows persists telemetry rows for an entity. Each row carries its
	// own key, partition and timestamp.
	WriteRows(ctx context.Context, entityType, entityID string, rows []telemetry.Row) error

	// Range returns all rows for one (key, partition) of an entity. Row
	// order is unspecified; callers sort before use.
	Range(ctx context.Context, q RangeQuery) ([]telemetry.Row, error)

	// Keys returns the distinct telemetry keys ever written for an entity,
	// sorted ascending.
	Keys(ctx context.Context, entityType, entityID string) ([]string, error)

	// Partitions returns the (key, partition) pairs holding data for the
	// given keys. An empty keys slice means all keys.
	Partitions(ctx context.Context, entityType, entityID string, keys []string) ([]KeyPartition, error)

	// Latest returns the most recent row per telemetry key for an entity.
	Latest(ctx context.Context, entityType, entityID string) ([]telemetry.Row, error)

	// Close cleanly shuts down the store.
	Close() error
}
