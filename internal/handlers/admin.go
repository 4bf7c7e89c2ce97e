package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/carinotj19/ShelterSync/internal/services"
	pkghttp "github.com/carinotj19/ShelterSync/pkg/http"
)

// AdminServiceInterface defines the administration operations the handler needs
type AdminServiceInterface interface {
	ListUsers(ctx context.Context, page, limit int) ([]*services.UserResponse, *models.Pagination, error)
	UpdateUserRole(ctx context.Context, adminID, userID, role string) (*services.UserResponse, error)
	SetUserActive(ctx context.Context, adminID, userID string, active bool) (*services.UserResponse, error)
	DeleteUser(ctx context.Context, adminID, userID string) error
	GetPlatformStatistics(ctx context.Context) (*services.PlatformStatistics, error)
}

// AdminHandler handles platform administration HTTP requests
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// UpdateRoleRequest represents the request body for a role change.
// Admin is not a grantable role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=adopter shelter"`
}

// SetActiveRequest represents the request body for account activation
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ListUsersResponse wraps a page of users
type ListUsersResponse struct {
	Users      []*services.UserResponse `json:"users"`
	Pagination *models.Pagination       `json:"pagination"`
}

// RegisterRoutes registers admin routes with the chi router. Every
// route requires an authenticated admin.
func (h *AdminHandler) RegisterRoutes(router chi.Router, authMW func(http.Handler) http.Handler) {
	router.Route("/admin", func(r chi.Router) {
		r.Use(authMW)
		r.Use(auth.RequireRole(models.RoleAdmin))

		r.Get("/users", h.ListUsers)
		r.Put("/users/{id}/role", h.UpdateRole)
		r.Put("/users/{id}/active", h.SetActive)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Get("/statistics", h.Statistics)
	})
}

// ListUsers returns a page of platform users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	users, pagination, err := h.service.ListUsers(r.Context(), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListUsersResponse{Users: users, Pagination: pagination})
}

// UpdateRole changes a user's role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateUserRole(r.Context(), claims.UserID, userID, req.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// SetActive enables or disables an account
func (h *AdminHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.SetUserActive(r.Context(), claims.UserID, userID, *req.Active)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account and cascades its domain data
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	if err := h.service.DeleteUser(r.Context(), claims.UserID, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// Statistics returns platform-wide counts
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetPlatformStatistics(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
