package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/metadata"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
	"github.com/telemetryhq/fleethub/pkg/tsstore/memory"
)

type fakeDevices struct {
	devices map[string]string // deviceID -> tenantID
}

func (f *fakeDevices) FindByIDAndTenant(ctx context.Context, deviceID, tenantID string) (*metadata.Device, error) {
	if f.devices[deviceID] != tenantID {
		return nil, nil
	}
	return &metadata.Device{ID: deviceID, TenantID: tenantID}, nil
}

func (f *fakeDevices) List(ctx context.Context, tenantID string, filter metadata.DeviceFilter, page metadata.Page) ([]metadata.Device, int, error) {
	return nil, 0, nil
}

func (f *fakeDevices) Counts(ctx context.Context, tenantID, customerID string) (*metadata.DeviceCounts, error) {
	return &metadata.DeviceCounts{}, nil
}

func postTelemetry(t *testing.T, h *Handler, deviceID, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/v1/telemetry/{deviceId}", h.HandleIngest).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/v1/telemetry/"+deviceID, strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "u1", TenantID: "tenant-1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleIngestTypedRows(t *testing.T) {
	store := memory.New()
	devices := &fakeDevices{devices: map[string]string{"dev-1": "tenant-1"}}
	h := NewHandler(store, devices, NewCardinalityTracker(), nil, 24*time.Hour)

	rec := postTelemetry(t, h, "dev-1", `{
		"ts": 1625140800000,
		"values": {
			"temperature": 21.5,
			"uptime": 3600,
			"online": true,
			"firmware": "1.2.3",
			"position": {"lat": 1.5, "lon": 2.5}
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 5, resp.Count)

	// 1625140800000 truncated to a 24h window
	wantPartition := int64(1625140800000 - 1625140800000%(24*time.Hour).Milliseconds())

	byKey := map[string]bool{}
	keys, err := store.Keys(context.Background(), tsstore.EntityDevice, "dev-1")
	require.NoError(t, err)
	for _, k := range keys {
		byKey[k] = true
	}
	require.True(t, byKey["temperature"] && byKey["uptime"] && byKey["online"])

	rows, err := store.Range(context.Background(), tsstore.RangeQuery{
		EntityType: tsstore.EntityDevice,
		EntityID:   "dev-1",
		Key:        "temperature",
		Partition:  wantPartition,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].DblV)
	require.Equal(t, 21.5, *rows[0].DblV)

	rows, err = store.Range(context.Background(), tsstore.RangeQuery{
		EntityType: tsstore.EntityDevice,
		EntityID:   "dev-1",
		Key:        "uptime",
		Partition:  wantPartition,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].LongV, "whole numbers go to the long column")
	require.Equal(t, int64(3600), *rows[0].LongV)

	rows, err = store.Range(context.Background(), tsstore.RangeQuery{
		EntityType: tsstore.EntityDevice,
		EntityID:   "dev-1",
		Key:        "position",
		Partition:  wantPartition,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].JSONV)
	require.JSONEq(t, `{"lat":1.5,"lon":2.5}`, *rows[0].JSONV)
}

func TestHandleIngestDeviceNotOwned(t *testing.T) {
	store := memory.New()
	devices := &fakeDevices{devices: map[string]string{"dev-1": "other-tenant"}}
	h := NewHandler(store, devices, NewCardinalityTracker(), nil, 24*time.Hour)

	rec := postTelemetry(t, h, "dev-1", `{"values": {"temperature": 1}}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	keys, err := store.Keys(context.Background(), tsstore.EntityDevice, "dev-1")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestHandleIngestRejectsEmptyValues(t *testing.T) {
	devices := &fakeDevices{devices: map[string]string{"dev-1": "tenant-1"}}
	h := NewHandler(memory.New(), devices, NewCardinalityTracker(), nil, 24*time.Hour)

	rec := postTelemetry(t, h, "dev-1", `{"values": {}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleIngestRejectsEmptyKey(t *testing.T) {
	devices := &fakeDevices{devices: map[string]string{"dev-1": "tenant-1"}}
	h := NewHandler(memory.New(), devices, NewCardinalityTracker(), nil, 24*time.Hour)

	rec := postTelemetry(t, h, "dev-1", `{"values": {"": 1}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildRowNull(t *testing.T) {
	row, err := buildRow("status", 0, 1000, nil)
	require.NoError(t, err)
	require.True(t, row.Empty())
}
