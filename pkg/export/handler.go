package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/httpx"
)

// Handler serves the export endpoint.
type Handler struct {
	exporter *Exporter
}

// NewHandler returns a Handler backed by exporter.
func NewHandler(exporter *Exporter) *Handler {
	return &Handler{exporter: exporter}
}

// HandleExport streams a telemetry export for one device. Validation and
// ownership failures are reported as JSON errors; once the file body has
// started, a pipeline failure can only abort the connection.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		httpx.RespondErrorString(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondErrorString(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result, err := h.exporter.Export(r.Context(), identity.TenantID, deviceID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			httpx.RespondError(w, http.StatusBadRequest, err)
		case errors.Is(err, ErrDeviceNotFound):
			httpx.RespondErrorString(w, http.StatusNotFound, "device not found")
		default:
			log.Printf("export: device %s: %v", deviceID, err)
			httpx.RespondErrorString(w, http.StatusInternalServerError, "export failed")
		}
		return
	}
	defer result.Content.Close()

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Cache-Control", "no-cache")

	n, err := io.Copy(w, result.Content)
	if err != nil {
		log.Printf("export: device %s: stream failed after %d bytes: %v", deviceID, n, err)
		if n == 0 {
			httpx.RespondErrorString(w, http.StatusInternalServerError, "export failed")
			return
		}
		// The body is partially written; aborting is the only way to tell
		// the client the download is incomplete.
		panic(http.ErrAbortHandler)
	}
}
