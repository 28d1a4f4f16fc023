package server

import (
	"context"
	"log"
	"time"

	"github.com/telemetryhq/fleethub/pkg/config"
	badgerstore "github.com/telemetryhq/fleethub/pkg/tsstore/badger"
)

// RunBadgerGC periodically runs BadgerDB value-log garbage collection.
// Badger never reclaims value-log space on its own; without this the data
// directory grows monotonically.
func RunBadgerGC(ctx context.Context, store *badgerstore.Store) {
	ticker := time.NewTicker(config.BadgerGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping BadgerDB GC scheduler")
			return
		case <-ticker.C:
			start := time.Now()
			if err := store.RunGC(0.5); err != nil {
				// ErrNoRewrite just means there was nothing to reclaim
				continue
			}
			log.Printf("BadgerDB GC completed in %v", time.Since(start).Round(time.Millisecond))
		}
	}
}
