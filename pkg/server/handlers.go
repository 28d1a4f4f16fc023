package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/config"
	"github.com/telemetryhq/fleethub/pkg/httpx"
	"github.com/telemetryhq/fleethub/pkg/metadata"
)

var startTime = time.Now()

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// handleHealth returns service health status.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: "1.0.0",
		Uptime:  time.Since(startTime).String(),
	})
}

// SetupRoutes configures all HTTP routes for the server.
func SetupRoutes(router *mux.Router, cfg *config.Config, h *Handlers) {
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/health", handleHealth).Methods("GET")
	api.HandleFunc("/auth/login", h.Auth.HandleLogin).Methods("POST")

	// Everything below requires a valid token
	authed := api.NewRoute().Subrouter()
	authed.Use(auth.Middleware(h.Tokens))

	authed.HandleFunc("/devices", h.Device.HandleList).Methods("GET")
	authed.HandleFunc("/devices/counts", h.Device.HandleCounts).Methods("GET")
	authed.HandleFunc("/devices/{deviceId}", h.Device.HandleGet).Methods("GET")
	authed.HandleFunc("/devices/{deviceId}/telemetry/keys", h.Device.HandleTelemetryKeys).Methods("GET")
	authed.HandleFunc("/devices/{deviceId}/telemetry/partitions", h.Device.HandleTelemetryPartitions).Methods("GET")
	authed.HandleFunc("/devices/{deviceId}/telemetry/latest", h.Device.HandleLatestTelemetry).Methods("GET")

	authed.HandleFunc("/device-profiles", h.Profile.HandleList).Methods("GET")
	authed.HandleFunc("/device-profiles/count", h.Profile.HandleCount).Methods("GET")

	authed.HandleFunc("/data-export/device/{deviceId}", h.Export.HandleExport).Methods("POST")
	authed.HandleFunc("/telemetry/{deviceId}", h.Ingest.HandleIngest).Methods("POST")

	// WebSocket for live telemetry
	authed.HandleFunc("/ws", h.Hub.HandleWebSocket).Methods("GET")

	// Tenant administration
	admin := authed.NewRoute().Subrouter()
	admin.Use(auth.RequireAuthority(metadata.AuthorityTenantAdmin))
	admin.HandleFunc("/users", h.Auth.HandleUsers).Methods("GET")
}

// corsMiddleware sets CORS headers for allowed origins. A "*" entry allows
// any origin.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
