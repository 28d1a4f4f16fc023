// Package deviceprofile exposes the tenant-scoped device profile endpoints.
package deviceprofile

import (
	"log"
	"net/http"

	"github.com/telemetryhq/fleethub/pkg/auth"
	"github.com/telemetryhq/fleethub/pkg/httpx"
	"github.com/telemetryhq/fleethub/pkg/metadata"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler serves device profile endpoints.
type Handler struct {
	profiles metadata.ProfileRepository
}

// NewHandler returns a profile Handler.
func NewHandler(profiles metadata.ProfileRepository) *Handler {
	return &Handler{profiles: profiles}
}

// ListResponse is one page of device profiles.
type ListResponse struct {
	Profiles []metadata.DeviceProfile `json:"profiles"`
	PageInfo httpx.PageInfo           `json:"pageInfo"`
}

// HandleList returns the tenant's device profiles, paged.
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

	profiles, total, err := h.profiles.List(r.Context(), identity.TenantID, page)
	if err != nil {
		log.Printf("deviceprofile: list: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to list device profiles")
		return
	}
	if profiles == nil {
		profiles = []metadata.DeviceProfile{}
	}

	httpx.RespondJSON(w, http.StatusOK, ListResponse{
		Profiles: profiles,
		PageInfo: httpx.NewPageInfo(page.Number, page.Size, total),
	})
}

// CountResponse carries the tenant's profile count.
type CountResponse struct {
	Count int `json:"count"`
}

// HandleCount returns how many device profiles the tenant has.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		httpx.RespondErrorString(w, http.StatusUnauthorized, "missing identity")
		return
	}

	count, err := h.profiles.Count(r.Context(), identity.TenantID)
	if err != nil {
		log.Printf("deviceprofile: count: %v", err)
		httpx.RespondErrorString(w, http.StatusInternalServerError, "failed to count device profiles")
		return
	}
	httpx.RespondJSON(w, http.StatusOK, CountResponse{Count: count})
}
