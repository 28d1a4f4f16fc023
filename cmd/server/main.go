// Command server runs the fleethub telemetry API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/telemetryhq/fleethub/pkg/config"
	"github.com/telemetryhq/fleethub/pkg/server"
	badgerstore "github.com/telemetryhq/fleethub/pkg/tsstore/badger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := server.InitializeStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := server.InitializeMetadata(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	handlers := server.InitializeHandlers(cfg, store, db)

	router := mux.NewRouter()
	server.SetupRoutes(router, cfg, handlers)

	go handlers.Hub.Run(ctx)
	if bs, ok := store.(*badgerstore.Store); ok {
		go server.RunBadgerGC(ctx, bs)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		// No WriteTimeout: exports stream files of unbounded size
	}

	go func() {
		log.Printf("fleethub listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
