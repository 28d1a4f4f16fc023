// Package server wires configuration, storage, and handlers into a running
// HTTP service.
package server

import (
	"context"
	"log"
	"os"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/config"
	"github.com/telemetryhq/fleethub/pkg/device"
	"github.com/telemetryhq/fleethub/pkg/deviceprofile"
	"github.com/telemetryhq/fleethub/pkg/export"
	"github.com/telemetryhq/fleethub/pkg/ingest"
	"github.com/telemetryhq/fleethub/pkg/metadata"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
	badgerstore "github.com/telemetryhq/fleethub/pkg/tsstore/badger"
)

// Handlers bundles every request handler the router needs.
type Handlers struct {
	Auth    *auth.Handler
	Device  *device.Handler
	Profile *deviceprofile.Handler
	Export  *export.Handler
	Ingest  *ingest.Handler
	Hub     *ingest.TelemetryHub
	Tokens  *auth.TokenProvider
}

// InitializeStorage opens the BadgerDB time-series store.
func InitializeStorage(cfg *config.Config) (tsstore.Store, error) {
	if !cfg.InMemory {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, err
		}
	}

	log.Println("Initializing BadgerDB telemetry storage...")
	store, err := badgerstore.New(badgerstore.Config{
		Path:        cfg.DataDir,
		InMemory:    cfg.InMemory,
		MaxMemoryMB: cfg.MaxMemoryMB,
	})
	if err != nil {
		return nil, err
	}
	log.Println("BadgerDB telemetry storage initialized")
	return store, nil
}

// InitializeMetadata connects to PostgreSQL.
func InitializeMetadata(ctx context.Context, cfg *config.Config) (*metadata.Postgres, error) {
	db, err := metadata.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Println("PostgreSQL metadata store connected")
	return db, nil
}

// InitializeHandlers creates and configures all request handlers.
func InitializeHandlers(cfg *config.Config, store tsstore.Store, db *metadata.Postgres) *Handlers {
	tokens := auth.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL)
	authSvc := auth.NewService(db.Users(), tokens)

	hub := ingest.NewTelemetryHub()
	tracker := ingest.NewCardinalityTracker()

	exporter := export.NewExporter(db.Devices(), export.NewFetcher(store))

	h := &Handlers{
		Auth:    auth.NewHandler(authSvc, db.Users()),
		Device:  device.NewHandler(db.Devices(), store),
		Profile: deviceprofile.NewHandler(db.Profiles()),
		Export:  export.NewHandler(exporter),
		Ingest:  ingest.NewHandler(store, db.Devices(), tracker, hub, cfg.PartitionWindow),
		Hub:     hub,
		Tokens:  tokens,
	}
	log.Println("Handlers created (auth, devices, profiles, export, ingest)")
	return h
}
