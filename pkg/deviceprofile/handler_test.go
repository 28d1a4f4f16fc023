package deviceprofile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/metadata"
)

type fakeProfiles struct {
	profiles []metadata.DeviceProfile
}

func (f *fakeProfiles) List(ctx context.Context, tenantID string, page metadata.Page) ([]metadata.DeviceProfile, int, error) {
	return f.profiles, len(f.profiles), nil
}

func (f *fakeProfiles) Count(ctx context.Context, tenantID string) (int, error) {
	return len(f.profiles), nil
}

func TestHandleList(t *testing.T) {
	h := NewHandler(&fakeProfiles{profiles: []metadata.DeviceProfile{
		{ID: "prof-1", TenantID: "tenant-1", Name: "thermostat"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/v1/device-profiles", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "u1", TenantID: "tenant-1"}))
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Profiles, 1)
	require.Equal(t, "thermostat", resp.Profiles[0].Name)
	require.Equal(t, 1, resp.PageInfo.Total)
}

func TestHandleCount(t *testing.T) {
	h := NewHandler(&fakeProfiles{profiles: make([]metadata.DeviceProfile, 3)})

	req := httptest.NewRequest(http.MethodGet, "/v1/device-profiles/count", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "u1", TenantID: "tenant-1"}))
	rec := httptest.NewRecorder()
	h.HandleCount(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Count)
}

func TestUnauthenticated(t *testing.T) {
	h := NewHandler(&fakeProfiles{})
	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/v1/device-profiles", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
