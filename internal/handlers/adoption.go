package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/carinotj19/ShelterSync/internal/services"
	pkghttp "github.com/carinotj19/ShelterSync/pkg/http"
)

// AdoptionServiceInterface defines the workflow operations the handler needs
type AdoptionServiceInterface interface {
	CreateRequest(ctx context.Context, petID, adopterID string, input services.CreateRequestInput) (*models.AdoptionRequest, error)
	ApproveRequest(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error)
	RejectRequest(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error)
	WithdrawRequest(ctx context.Context, requestID, adopterID string) (*models.AdoptionRequest, error)
	AddNote(ctx context.Context, requestID, userID, userRole, content string) (*models.AdoptionRequest, error)
	GetRequestByID(ctx context.Context, requestID, userID, userRole string) (*models.AdoptionRequest, error)
	ListForAdopter(ctx context.Context, adopterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error)
	ListForShelter(ctx context.Context, shelterID, status string, page, limit int) ([]*models.AdoptionRequest, *models.Pagination, error)
	GetStatistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error)
	BulkUpdateStatus(ctx context.Context, actorID, actorRole string, requestIDs []string, action services.BulkAction, response string) []services.BulkResult
}

// AdoptionHandler handles adoption workflow HTTP requests
type AdoptionHandler struct {
	service AdoptionServiceInterface
}

// NewAdoptionHandler creates a new AdoptionHandler
func NewAdoptionHandler(service AdoptionServiceInterface) *AdoptionHandler {
	return &AdoptionHandler{service: service}
}

// CreateAdoptionRequest represents the request body for a new adoption request
type CreateAdoptionRequest struct {
	Message     string             `json:"message" validate:"required,min=10,max=1000"`
	AdopterInfo models.AdopterInfo `json:"adopterInfo"`
}

// RespondRequest represents the optional shelter response text
type RespondRequest struct {
	Response string `json:"response" validate:"omitempty,max=1000"`
}

// AddNoteRequest represents the request body for a request note
type AddNoteRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// BulkUpdateRequest represents the request body for bulk decisions
type BulkUpdateRequest struct {
	RequestIDs []string `json:"requestIds" validate:"required,min=1,max=50"`
	Action     string   `json:"action" validate:"required,oneof=approve reject"`
	Response   string   `json:"response" validate:"omitempty,max=1000"`
}

// BulkUpdateResult is the per-request outcome in the bulk response
type BulkUpdateResult struct {
	RequestID string                  `json:"requestId"`
	Success   bool                    `json:"success"`
	Error     string                  `json:"error,omitempty"`
	Request   *models.AdoptionRequest `json:"request,omitempty"`
}

// ListRequestsResponse wraps a page of adoption requests
type ListRequestsResponse struct {
	Requests   []*models.AdoptionRequest `json:"requests"`
	Pagination *models.Pagination        `json:"pagination"`
}

// RegisterRoutes registers adoption routes with the chi router. All
// adoption routes require authentication.
func (h *AdoptionHandler) RegisterRoutes(router chi.Router, authMW func(http.Handler) http.Handler) {
	router.Route("/adoptions", func(r chi.Router) {
		r.Use(authMW)

		r.With(auth.RequireRole(models.RoleAdopter)).Post("/pets/{petId}", h.Create)
		r.With(auth.RequireRole(models.RoleAdopter)).Get("/my-requests", h.MyRequests)
		r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Get("/shelter-requests", h.ShelterRequests)
		r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Get("/statistics", h.Statistics)
		r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Put("/bulk-update", h.BulkUpdate)

		r.Get("/{id}", h.Get)
		r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Put("/{id}/approve", h.Approve)
		r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Put("/{id}/reject", h.Reject)
		r.With(auth.RequireRole(models.RoleAdopter)).Put("/{id}/withdraw", h.Withdraw)
		r.Post("/{id}/notes", h.AddNote)
	})
}

// Create opens a new adoption request against a pet
func (h *AdoptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	petID := chi.URLParam(r, "petId")
	if petID == "" {
		pkghttp.WriteBadRequest(w, "Pet ID is required")
		return
	}

	var req CreateAdoptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	request, err := h.service.CreateRequest(r.Context(), petID, claims.UserID, services.CreateRequestInput{
		Message:     req.Message,
		AdopterInfo: req.AdopterInfo,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// Get returns one request to a party with visibility
func (h *AdoptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		pkghttp.WriteBadRequest(w, "Request ID is required")
		return
	}

	request, err := h.service.GetRequestByID(r.Context(), requestID, claims.UserID, claims.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// MyRequests lists the adopter's own requests
func (h *AdoptionHandler) MyRequests(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	page, limit := pageParams(r)

	requests, pagination, err := h.service.ListForAdopter(r.Context(), claims.UserID, r.URL.Query().Get("status"), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListRequestsResponse{Requests: requests, Pagination: pagination})
}

// ShelterRequests lists the shelter's incoming requests
func (h *AdoptionHandler) ShelterRequests(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	shelterID := claims.UserID
	// Admins may inspect any shelter's queue.
	if claims.Role == models.RoleAdmin {
		if v := r.URL.Query().Get("shelterId"); v != "" {
			shelterID = v
		}
	}

	page, limit := pageParams(r)

	requests, pagination, err := h.service.ListForShelter(r.Context(), shelterID, r.URL.Query().Get("status"), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListRequestsResponse{Requests: requests, Pagination: pagination})
}

// Approve approves a pending request
func (h *AdoptionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.ApproveRequest)
}

// Reject declines a pending request
func (h *AdoptionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.RejectRequest)
}

func (h *AdoptionHandler) respond(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, requestID, actorID, actorRole, response string) (*models.AdoptionRequest, error)) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		pkghttp.WriteBadRequest(w, "Request ID is required")
		return
	}

	var req RespondRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
		if err := ValidateRequest(req); err != nil {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
	}

	request, err := decide(r.Context(), requestID, claims.UserID, claims.Role, req.Response)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// Withdraw closes the adopter's own pending request
func (h *AdoptionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		pkghttp.WriteBadRequest(w, "Request ID is required")
		return
	}

	request, err := h.service.WithdrawRequest(r.Context(), requestID, claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// AddNote appends a note to a request
func (h *AdoptionHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		pkghttp.WriteBadRequest(w, "Request ID is required")
		return
	}

	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	request, err := h.service.AddNote(r.Context(), requestID, claims.UserID, claims.Role, req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// Statistics returns request counts and mean response latency
func (h *AdoptionHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	shelterID := claims.UserID
	if claims.Role == models.RoleAdmin {
		shelterID = r.URL.Query().Get("shelterId")
	}

	stats, err := h.service.GetStatistics(r.Context(), shelterID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// BulkUpdate applies one decision to many requests
func (h *AdoptionHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	results := h.service.BulkUpdateStatus(r.Context(), claims.UserID, claims.Role, req.RequestIDs, services.BulkAction(req.Action), req.Response)

	out := make([]BulkUpdateResult, 0, len(results))
	for _, result := range results {
		item := BulkUpdateResult{
			RequestID: result.RequestID,
			Success:   result.Err == nil,
			Request:   result.Request,
		}
		if result.Err != nil {
			item.Error = bulkErrorMessage(result.Err)
		}
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": out})
}

// bulkErrorMessage translates a per-item error without leaking internals.
func bulkErrorMessage(err error) string {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, models.ErrNotFound):
		return "Request not found"
	case errors.Is(err, models.ErrForbidden):
		return "You can only respond to your own adoption requests"
	default:
		return "Internal error"
	}
}
