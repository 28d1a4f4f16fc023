package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/telemetryhq/fleethub/pkg/httpx"
	"github.com/telemetryhq/fleethub/pkg/metadata"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler serves the auth endpoints.
type Handler struct {
	svc   *Service
	users metadata.UserRepository
}

// NewHandler creates the auth handler.
func NewHandler(svc *Service, users metadata.UserRepository) *Handler {
	return &Handler{svc: svc, users: users}
}

// LoginRequest is the POST /v1/auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token and the authenticated user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *metadata.User `json:"user"`
}

// HandleLogin handles POST /v1/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondErrorString(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.RespondErrorString(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, LoginResponse{AccessToken: token, User: user})
}

// UsersResponse is one page of users.
type UsersResponse struct {
	Users      []metadata.User `json:"users"`
	Pagination httpx.PageInfo  `json:"pagination"`
}

// HandleUsers handles GET /v1/auth/users for the caller's tenant.
func (h *Handler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	if identity == nil {
		httpx.RespondErrorString(w, http.StatusUnauthorized, "missing identity")
		return
	}

	page := metadata.Page{
		Number: httpx.QueryInt(r, "pageNumber", 1),
		Size:   httpx.QueryInt(r, "pageSize", defaultPageSize),
	}
	if page.Size < 1 || page.Size > maxPageSize {
		page.Size = defaultPageSize
	}

	users, total, err := h.users.List(r.Context(), identity.TenantID, page)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, UsersResponse{
		Users:      users,
		Pagination: httpx.NewPageInfo(page.Number, page.Size, total),
	})
}
