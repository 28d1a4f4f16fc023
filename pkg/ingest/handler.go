// Package ingest accepts telemetry posted by devices, converts it into typed
// rows, and writes it to the time-series store.
package ingest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/httpx"
	"github.com/telemetryhq/fleethub/pkg/metadata"
	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
)

// Handler handles telemetry ingestion.
type Handler struct {
	store           tsstore.Store
	devices         metadata.DeviceRepository
	tracker         *CardinalityTracker
	hub             *TelemetryHub
	partitionWindow time.Duration
	now             func() time.Time
}

// NewHandler creates an ingest handler. hub may be nil when live streaming is
// disabled.
func NewHandler(store tsstore.Store, devices metadata.DeviceRepository, tracker *CardinalityTracker, hub *TelemetryHub, partitionWindow time.Duration) *Handler {
	return &Handler{
		store:           store,
		devices:         devices,
		tracker:         tracker,
		hub:             hub,
		partitionWindow: partitionWindow,
		now:             time.Now,
	}
}

// Request is the telemetry payload: a timestamp (defaults to now) and a flat
// map of key to value.
type Request struct {
	TS     int64          `json:"ts,omitempty"`
	Values map[string]any `json:"values"`
}

// Response reports how many values were written.
type Response struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// HandleIngest handles POST /v1/telemetry/{deviceId}.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		httpx.RespondErrorString(w, http.StatusUnauthorized, "missing identity")
		return
	}

	deviceID := mux.Vars(r)["deviceId"]
	device, err := h.devices.FindByIDAndTenant(r.Context(), deviceID, identity.TenantID)
	if err != nil {
		log.Printf("ingest: lookup %s: %v", deviceID, err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to load device")
		return
	}
	if device == nil {
		httpx.RespondErrorString(w, http.StatusNotFound, "device not found")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondErrorString(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if len(req.Values) == 0 {
		httpx.RespondErrorString(w, http.StatusBadRequest, "values must not be empty")
		return
	}
	if len(req.Values) > MaxValuesPerRequest {
		httpx.RespondError(w, http.StatusBadRequest, ErrTooManyValues)
		return
	}

	ts := req.TS
	if ts == 0 {
		ts = h.now().UnixMilli()
	}
	partition := ts - ts%h.partitionWindow.Milliseconds()

	rows := make([]telemetry.Row, 0, len(req.Values))
	for key, value := range req.Values {
		if err := ValidateKey(key); err != nil {
			httpx.RespondError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.tracker.Check(deviceID, key); err != nil {
			httpx.RespondError(w, http.StatusTooManyRequests, err)
			return
		}
		row, err := buildRow(key, partition, ts, value)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, err)
			return
		}
		rows = append(rows, row)
	}

	if err := h.store.WriteRows(r.Context(), tsstore.EntityDevice, deviceID, rows); err != nil {
		log.Printf("ingest: write %s: %v", deviceID, err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to write telemetry")
		return
	}
	for _, row := range rows {
		h.tracker.Record(deviceID, row.Key)
	}

	if h.hub != nil && h.hub.HasClients() {
		if err := h.hub.Broadcast(map[string]any{
			"deviceId": deviceID,
			"ts":       ts,
			"values":   req.Values,
		}); err != nil {
			log.Printf("ingest: broadcast: %v", err)
		}
	}

	httpx.RespondJSON(w, http.StatusOK, Response{Status: "success", Count: len(rows)})
}

// buildRow stores the value in the column matching its JSON type: booleans,
// whole numbers, fractions, strings, and structured values each get their
// own column so exports can decode without guessing.
func buildRow(key string, partition, ts int64, value any) (telemetry.Row, error) {
	row := telemetry.Row{Key: key, Partition: partition, TS: ts}

	switch v := value.(type) {
	case nil:
		// All columns stay empty; readers treat the row as null.
	case bool:
		row.BoolV = &v
	case float64:
		if v == float64(int64(v)) {
			n := int64(v)
			row.LongV = &n
		} else {
			row.DblV = &v
		}
	case string:
		if len(v) > MaxStringValueLength {
			return row, fmt.Errorf("%w: key %q", ErrValueTooLong, key)
		}
		row.StrV = &v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return row, fmt.Errorf("encode value for key %q: %w", key, err)
		}
		if len(data) > MaxStringValueLength {
			return row, fmt.Errorf("%w: key %q", ErrValueTooLong, key)
		}
		s := string(data)
		row.JSONV = &s
	default:
		return row, fmt.Errorf("unsupported value type for key %q", key)
	}
	return row, nil
}
