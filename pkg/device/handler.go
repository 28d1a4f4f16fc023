// Package device exposes the tenant-scoped device admin endpoints: listing,
// aggregate counts, and per-device telemetry metadata.
package device

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/httpx"
	"github.com/telemetryhq/fleethub/pkg/metadata"
	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler serves device endpoints from the metadata repository and the
// time-series store.
type Handler struct {
	devices metadata.DeviceRepository
	store   tsstore.Store
}

// NewHandler returns a device Handler.
func NewHandler(devices metadata.DeviceRepository, store tsstore.Store) *Handler {
	return &Handler{devices: devices, store: store}
}

// ListResponse is one page of devices.
type ListResponse struct {
	Devices  []metadata.Device `json:"devices"`
	PageInfo httpx.PageInfo    `json:"pageInfo"`
}

// HandleList returns the tenant's devices, filtered and paged.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		httpx.RespondErrorString(w, http.StatusUnauthorized, "missing identity")
		return
	}

	page := metadata.Page{
		Number: httpx.QueryInt(r, "page", 1),
		Size:   httpx.QueryInt(r, "limit", defaultPageSize),
	}
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 || page.Size > maxPageSize {
		page.Size = defaultPageSize
	}

	filter := metadata.DeviceFilter{
		CustomerID: r.URL.Query().Get("customerId"),
		Type:       r.URL.Query().Get("type"),
		ProfileID:  r.URL.Query().Get("profileId"),
	}

	devices, total, err := h.devices.List(r.Context(), identity.TenantID, filter, page)
	if err != nil {
		log.Printf("device: list: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []metadata.Device{}
	}

	httpx.RespondJSON(w, http.StatusOK, ListResponse{
		Devices:  devices,
		PageInfo: httpx.NewPageInfo(page.Number, page.Size, total),
	})
}

// HandleCounts returns the tenant's device totals grouped by type and profile.
func (h *Handler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		httpx.RespondErrorString(w, http.StatusUnauthorized, "missing identity")
		return
	}

	counts, err := h.devices.Counts(r.Context(), identity.TenantID, r.URL.Query().Get("customerId"))
	if err != nil {
		log.Printf("device: counts: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to count devices")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, counts)
}

// HandleGet returns one device owned by the tenant.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}
	httpx.RespondJSON(w, http.StatusOK, device)
}

// KeysResponse lists a device's telemetry keys.
type KeysResponse struct {
	Keys []string `json:"keys"`
}

// HandleTelemetryKeys returns the distinct telemetry keys for a device.
func (h *Handler) HandleTelemetryKeys(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}

	keys, err := h.store.Keys(r.Context(), tsstore.EntityDevice, device.ID)
	if err != nil {
		log.Printf("device: keys: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to read telemetry keys")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	httpx.RespondJSON(w, http.StatusOK, KeysResponse{Keys: keys})
}

// PartitionEntry is one stored (key, partition) pair. Partitions travel as
// strings so clients never lose 64-bit precision.
type PartitionEntry struct {
	Key       string `json:"key"`
	Partition string `json:"partition"`
}

// PartitionsResponse lists the partitions available for export.
type PartitionsResponse struct {
	Partitions []PartitionEntry `json:"partitions"`
}

// HandleTelemetryPartitions returns the device's (key, partition) pairs,
// optionally filtered by repeated keys query parameters.
func (h *Handler) HandleTelemetryPartitions(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}

	keys := r.URL.Query()["keys"]
	pairs, err := h.store.Partitions(r.Context(), tsstore.EntityDevice, device.ID, keys)
	if err != nil {
		log.Printf("device: partitions: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to read partitions")
		return
	}

	entries := make([]PartitionEntry, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, PartitionEntry{
			Key:       p.Key,
			Partition: strconv.FormatInt(p.Partition, 10),
		})
	}
	httpx.RespondJSON(w, http.StatusOK, PartitionsResponse{Partitions: entries})
}

// LatestEntry is the newest reading for one key.
type LatestEntry struct {
	TS    int64  `json:"ts"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// HandleLatestTelemetry returns the newest reading per key for a device.
func (h *Handler) HandleLatestTelemetry(w http.ResponseWriter, r *http.Request) {
	device, ok := h.ownedDevice(w, r)
	if !ok {
		return
	}

	rows, err := h.store.Latest(r.Context(), tsstore.EntityDevice, device.ID)
	if err != nil {
		log.Printf("device: latest: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to read latest telemetry")
		return
	}

	entries := make([]LatestEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LatestEntry{
			TS:    row.TS,
			Key:   row.Key,
			Value: telemetry.DecodeValue(row, false),
		})
	}
	httpx.RespondJSON(w, http.StatusOK, entries)
}

// ownedDevice resolves the path device and enforces tenant ownership,
// writing the error response itself on failure.
func (h *Handler) ownedDevice(w http.ResponseWriter, r *http.Request) (*metadata.Device, bool) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		httpx.RespondErrorString(w, http.StatusUnauthorized, "missing identity")
		return nil, false
	}

	deviceID := mux.Vars(r)["deviceId"]
	device, err := h.devices.FindByIDAndTenant(r.Context(), deviceID, identity.TenantID)
	if err != nil {
		log.Printf("device: lookup %s: %v", deviceID, err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to load device")
		return nil, false
	}
	if device == nil {
		httpx.RespondErrorString(w, http.StatusNotFound, "device not found")
		return nil, false
	}
	return device, true
}
