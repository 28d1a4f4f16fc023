// Command seed loads a demo tenant, admin user, and sample devices with
// telemetry so a fresh install has something to look at.
package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/config"
	"github.com/telemetryhq/fleethub/pkg/metadata"
	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
	badgerstore "github.com/telemetryhq/fleethub/pkg/tsstore/badger"
)

const (
	demoEmail    = "admin@demo.fleethub.io"
	demoPassword = "fleethub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := metadata.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	store, err := badgerstore.New(badgerstore.Config{
		Path:        cfg.DataDir,
		MaxMemoryMB: cfg.MaxMemoryMB,
	})
	if err != nil {
		log.Fatalf("Failed to open telemetry storage: %v", err)
	}
	defer store.Close()

	tenantID := uuid.NewString()
	if err := db.CreateTenant(ctx, tenantID, "Demo Tenant"); err != nil {
		log.Fatal(err)
	}

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateUser(ctx, metadata.User{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Email:     demoEmail,
		FirstName: "Demo",
		LastName:  "Admin",
		Authority: metadata.AuthorityTenantAdmin,
	}, hash); err != nil {
		log.Fatal(err)
	}

	profileID := uuid.NewString()
	if err := db.CreateProfile(ctx, metadata.DeviceProfile{
		ID:       profileID,
		TenantID: tenantID,
		Name:     "thermostat",
		Type:     "DEFAULT",
	}); err != nil {
		log.Fatal(err)
	}

	now := time.Now()
	window := cfg.PartitionWindow.Milliseconds()
	for i := 0; i < 3; i++ {
		deviceID := uuid.NewString()
		if err := db.CreateDevice(ctx, metadata.Device{
			ID:        deviceID,
			TenantID:  tenantID,
			ProfileID: &profileID,
			Name:      "thermostat-" + deviceID[:8],
			Type:      "thermostat",
		}); err != nil {
			log.Fatal(err)
		}

		// A day of readings at 10 minute intervals
		var rows []telemetry.Row
		for ts := now.Add(-24 * time.Hour); ts.Before(now); ts = ts.Add(10 * time.Minute) {
			epoch := ts.UnixMilli()
			temp := 18 + rand.Float64()*8
			hum := int64(30 + rand.Intn(40))
			online := true
			rows = append(rows,
				telemetry.Row{Key: "temperature", Partition: epoch - epoch%window, TS: epoch, DblV: &temp},
				telemetry.Row{Key: "humidity", Partition: epoch - epoch%window, TS: epoch, LongV: &hum},
				telemetry.Row{Key: "online", Partition: epoch - epoch%window, TS: epoch, BoolV: &online},
			)
		}
		if err := store.WriteRows(ctx, tsstore.EntityDevice, deviceID, rows); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("Seeded demo tenant %s (login %s / %s)", tenantID, demoEmail, demoPassword)
}
