// Package badger implements tsstore.Store on BadgerDB (LSM tree).
package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
)

// Key layout. Series keys sort by (series hash, partition, timestamp) so a
// Range query is one prefix scan.
//
//	's' | hash64(entityType, entityID, key) | partition (8 BE) | ts (8 BE) -> row JSON
//	'k' | hash64(entityType, entityID) | key | 0x00 | partition (8 BE)     -> nil (dictionary)
//	'l' | hash64(entityType, entityID) | key                               -> row JSON (latest)
//
// Telemetry keys must not contain NUL; WriteRows rejects them.
const (
	prefixSeries = 's'
	prefixDict   = 'k'
	prefixLatest = 'l'
)

// Store implements tsstore.Store using BadgerDB.
type Store struct {
	db *badger.DB
}

// Config holds BadgerDB configuration.
type Config struct {
	// Path to the database directory.
	Path string

	// InMemory mode (for testing).
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage (0 = conservative default).
	MaxMemoryMB int64
}

// New opens a BadgerDB-backed store. The options keep memory bounded for
// small self-hosted deployments: Snappy compression, a capped memtable, and
// 64 MB value log files.
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	memTableSize := int64(16 * 1024 * 1024)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		// badger requires at least 2 compactors to open
		WithNumCompactors(2).
		WithValueThreshold(1024).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// WriteRows persists rows along with dictionary and latest-value entries.
func (s *Store) WriteRows(ctx context.Context, entityType, entityID string, rows []telemetry.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, row := range rows {
		if bytes.ContainsRune([]byte(row.Key), 0) {
			return fmt.Errorf("telemetry key %q contains NUL", row.Key)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Update(func(txn *badger.Txn) error {
			entHash := hash64(entityType, entityID)
			for i, row := range rows {
				if i%100 == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}

				value, err := json.Marshal(row)
				if err != nil {
					return fmt.Errorf("failed to encode row: %w", err)
				}

				if err := txn.Set(seriesKey(entityType, entityID, row), value); err != nil {
					return fmt.Errorf("failed to write row: %w", err)
				}
				if err := txn.Set(dictKey(entHash, row.Key, row.Partition), nil); err != nil {
					return fmt.Errorf("failed to write dictionary entry: %w", err)
				}
				if err := updateLatest(txn, entHash, row, value); err != nil {
					return err
				}
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("write operation cancelled: %w", ctx.Err())
	}
}

// Range returns all rows for one (key, partition) via a prefix scan.
func (s *Store) Range(ctx context.Context, q tsstore.RangeQuery) ([]telemetry.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := seriesPrefix(q.EntityType, q.EntityID, q.Key, q.Partition)

	var results []telemetry.Row
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		var iterCount int
		for it.Rewind(); it.Valid(); it.Next() {
			iterCount++
			if iterCount%1000 == 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}

			err := it.Item().Value(func(val []byte) error {
				var row telemetry.Row
				if err := json.Unmarshal(val, &row); err != nil {
					return err
				}
				results = append(results, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return results, err
}

// Keys returns the distinct telemetry keys for an entity, sorted.
func (s *Store) Keys(ctx context.Context, entityType, entityID string) ([]string, error) {
	pairs, err := s.Partitions(ctx, entityType, entityID, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var keys []string
	for _, kp := range pairs {
		if !seen[kp.Key] {
			seen[kp.Key] = true
			keys = append(keys, kp.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Partitions scans the dictionary keyspace for an entity.
func (s *Store) Partitions(ctx context.Context, entityType, entityID string, keys []string) ([]tsstore.KeyPartition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	prefix := make([]byte, 9)
	prefix[0] = prefixDict
	binary.BigEndian.PutUint64(prefix[1:9], hash64(entityType, entityID))

	var results []tsstore.KeyPartition
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key, partition, ok := parseDictKey(it.Item().Key())
			if !ok {
				continue
			}
			if len(wanted) > 0 && !wanted[key] {
				continue
			}
			results = append(results, tsstore.KeyPartition{Key: key, Partition: partition})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Key != results[j].Key {
			return results[i].Key < results[j].Key
		}
		return results[i].Partition < results[j].Partition
	})
	return results, nil
}

// Latest scans the latest-value keyspace for an entity.
func (s *Store) Latest(ctx context.Context, entityType, entityID string) ([]telemetry.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := make([]byte, 9)
	prefix[0] = prefixLatest
	binary.BigEndian.PutUint64(prefix[1:9], hash64(entityType, entityID))

	var results []telemetry.Row
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var row telemetry.Row
				if err := json.Unmarshal(val, &row); err != nil {
					return err
				}
				results = append(results, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results, nil
}

// Close shuts down BadgerDB cleanly.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs BadgerDB's value log garbage collection. Returns badger's
// ErrNoRewrite when there is nothing to collect.
func (s *Store) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// view runs a read transaction in a goroutine so a cancelled context never
// leaves the caller blocked on badger.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	done := make(chan error, 1)
	go func() {
		done <- s.db.View(fn)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("read operation cancelled: %w", ctx.Err())
	}
}

func hash64(parts ...string) uint64 {
	h := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.WriteString(p)
	}
	return h.Sum64()
}

func seriesKey(entityType, entityID string, row telemetry.Row) []byte {
	key := seriesPrefix(entityType, entityID, row.Key, row.Partition)
	key = binary.BigEndian.AppendUint64(key, uint64(row.TS))
	return key
}

func seriesPrefix(entityType, entityID, key string, partition int64) []byte {
	prefix := make([]byte, 0, 17)
	prefix = append(prefix, prefixSeries)
	prefix = binary.BigEndian.AppendUint64(prefix, hash64(entityType, entityID, key))
	prefix = binary.BigEndian.AppendUint64(prefix, uint64(partition))
	return prefix
}

func dictKey(entHash uint64, key string, partition int64) []byte {
	dk := make([]byte, 0, 9+len(key)+9)
	dk = append(dk, prefixDict)
	dk = binary.BigEndian.AppendUint64(dk, entHash)
	dk = append(dk, key...)
	dk = append(dk, 0)
	dk = binary.BigEndian.AppendUint64(dk, uint64(partition))
	return dk
}

func parseDictKey(dk []byte) (key string, partition int64, ok bool) {
	if len(dk) < 9+1+9 || dk[0] != prefixDict {
		return "", 0, false
	}
	rest := dk[9:]
	sep := bytes.IndexByte(rest, 0)
	if sep < 0 || len(rest) != sep+1+8 {
		return "", 0, false
	}
	return string(rest[:sep]), int64(binary.BigEndian.Uint64(rest[sep+1:])), true
}

func latestKey(entHash uint64, key string) []byte {
	lk := make([]byte, 0, 9+len(key))
	lk = append(lk, prefixLatest)
	lk = binary.BigEndian.AppendUint64(lk, entHash)
	lk = append(lk, key...)
	return lk
}

// updateLatest overwrites the latest-value entry when the incoming row is
// newer than what is stored.
func updateLatest(txn *badger.Txn, entHash uint64, row telemetry.Row, value []byte) error {
	lk := latestKey(entHash, row.Key)

	item, err := txn.Get(lk)
	if err == nil {
		var cur telemetry.Row
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cur)
		}); err != nil {
			return err
		}
		if cur.TS >= row.TS {
			return nil
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	return txn.Set(lk, value)
}
