package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/metadata"
	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore/memory"
)

type fakeDevices struct {
	byID  map[string]metadata.Device
	list  []metadata.Device
	total int
}

func (f *fakeDevices) FindByIDAndTenant(ctx context.Context, deviceID, tenantID string) (*metadata.Device, error) {
	d, ok := f.byID[deviceID]
	if !ok || d.TenantID != tenantID {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeDevices) List(ctx context.Context, tenantID string, filter metadata.DeviceFilter, page metadata.Page) ([]metadata.Device, int, error) {
	return f.list, f.total, nil
}

func (f *fakeDevices) Counts(ctx context.Context, tenantID, customerID string) (*metadata.DeviceCounts, error) {
	return &metadata.DeviceCounts{Total: f.total}, nil
}

func newRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/devices", h.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/v1/devices/counts", h.HandleCounts).Methods(http.MethodGet)
	r.HandleFunc("/v1/devices/{deviceId}", h.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/v1/devices/{deviceId}/telemetry/keys", h.HandleTelemetryKeys).Methods(http.MethodGet)
	r.HandleFunc("/v1/devices/{deviceId}/telemetry/partitions", h.HandleTelemetryPartitions).Methods(http.MethodGet)
	r.HandleFunc("/v1/devices/{deviceId}/telemetry/latest", h.HandleLatestTelemetry).Methods(http.MethodGet)
	return r
}

func doGet(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "u1", TenantID: "tenant-1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func fptr(v float64) *float64 { return &v }

func TestHandleList(t *testing.T) {
	devices := &fakeDevices{
		list:  []metadata.Device{{ID: "dev-1", TenantID: "tenant-1", Name: "boiler"}},
		total: 1,
	}
	router := newRouter(NewHandler(devices, memory.New()))

	rec := doGet(t, router, "/v1/devices?page=1&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 1)
	require.Equal(t, 1, resp.PageInfo.Total)
	require.Equal(t, 1, resp.PageInfo.TotalPages)
}

func TestHandleGetNotOwned(t *testing.T) {
	devices := &fakeDevices{byID: map[string]metadata.Device{
		"dev-1": {ID: "dev-1", TenantID: "other-tenant"},
	}}
	router := newRouter(NewHandler(devices, memory.New()))

	rec := doGet(t, router, "/v1/devices/dev-1")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTelemetryKeys(t *testing.T) {
	devices := &fakeDevices{byID: map[string]metadata.Device{
		"dev-1": {ID: "dev-1", TenantID: "tenant-1"},
	}}
	store := memory.New()
	require.NoError(t, store.WriteRows(context.Background(), "DEVICE", "dev-1", []telemetry.Row{
		{Key: "temperature", Partition: 100, TS: 1000, DblV: fptr(21.5)},
		{Key: "humidity", Partition: 100, TS: 1000, DblV: fptr(40)},
	}))
	router := newRouter(NewHandler(devices, store))

	rec := doGet(t, router, "/v1/devices/dev-1/telemetry/keys")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp KeysResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []string{"humidity", "temperature"}, resp.Keys)
}

func TestHandleTelemetryPartitions(t *testing.T) {
	devices := &fakeDevices{byID: map[string]metadata.Device{
		"dev-1": {ID: "dev-1", TenantID: "tenant-1"},
	}}
	store := memory.New()
	require.NoError(t, store.WriteRows(context.Background(), "DEVICE", "dev-1", []telemetry.Row{
		{Key: "temperature", Partition: 100, TS: 1000, DblV: fptr(21.5)},
		{Key: "temperature", Partition: 200, TS: 2000, DblV: fptr(22)},
		{Key: "humidity", Partition: 100, TS: 1000, DblV: fptr(40)},
	}))
	router := newRouter(NewHandler(devices, store))

	rec := doGet(t, router, "/v1/devices/dev-1/telemetry/partitions?keys=temperature")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PartitionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []PartitionEntry{
		{Key: "temperature", Partition: "100"},
		{Key: "temperature", Partition: "200"},
	}, resp.Partitions)
}

func TestHandleLatestTelemetry(t *testing.T) {
	devices := &fakeDevices{byID: map[string]metadata.Device{
		"dev-1": {ID: "dev-1", TenantID: "tenant-1"},
	}}
	store := memory.New()
	require.NoError(t, store.WriteRows(context.Background(), "DEVICE", "dev-1", []telemetry.Row{
		{Key: "temperature", Partition: 100, TS: 1000, DblV: fptr(21.5)},
		{Key: "temperature", Partition: 100, TS: 2000, DblV: fptr(23)},
	}))
	router := newRouter(NewHandler(devices, store))

	rec := doGet(t, router, "/v1/devices/dev-1/telemetry/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []LatestEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, int64(2000), entries[0].TS)
	require.Equal(t, 23.0, entries[0].Value)
}

func TestUnauthenticated(t *testing.T) {
	router := newRouter(NewHandler(&fakeDevices{}, memory.New()))
	req := httptest.NewRequest(http.MethodGet, "/v1/devices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
