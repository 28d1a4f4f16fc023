// Command migrate applies the PostgreSQL schema migrations.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/telemetryhq/fleethub/pkg/metadata"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	dsn := os.Getenv("FLEETHUB_DATABASE_URL")
	if dsn == "" {
		log.Fatal("FLEETHUB_DATABASE_URL is required")
	}

	if err := metadata.Migrate(dsn, *direction); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migrations applied (%s)", *direction)
}
