package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/carinotj19/ShelterSync/internal/services"
	pkghttp "github.com/carinotj19/ShelterSync/pkg/http"
)

// PetServiceInterface defines the catalog operations the handler needs
type PetServiceInterface interface {
	GetByID(ctx context.Context, id string) (*models.Pet, error)
	List(ctx context.Context, filter models.PetFilter, page, limit int) ([]*models.Pet, *models.Pagination, error)
	ListFeatured(ctx context.Context, limit int) ([]*models.Pet, error)
	ListByShelter(ctx context.Context, shelterID, status string, page, limit int) ([]*models.Pet, *models.Pagination, error)
	Create(ctx context.Context, shelterID string, input services.CreatePetInput) (*models.Pet, error)
	Update(ctx context.Context, petID, actorID, actorRole string, input services.UpdatePetInput) (*models.Pet, error)
	Delete(ctx context.Context, petID, actorID, actorRole string) error
	MarkAsAdopted(ctx context.Context, petID, actorID, actorRole string, adopterID *string) (*models.Pet, error)
	ToggleFeatured(ctx context.Context, petID, actorRole string) (*models.Pet, error)
	GetStatistics(ctx context.Context, shelterID string) (*models.PetStatistics, error)
}

// PetHandler handles pet catalog HTTP requests
type PetHandler struct {
	service PetServiceInterface
}

// NewPetHandler creates a new PetHandler
func NewPetHandler(service PetServiceInterface) *PetHandler {
	return &PetHandler{service: service}
}

// CreatePetRequest represents the request body for a new listing
type CreatePetRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	Breed          string `json:"breed" validate:"omitempty,max=100"`
	Age            int    `json:"age" validate:"gte=0,lte=30"`
	HealthNotes    string `json:"healthNotes" validate:"omitempty,max=2000"`
	ImageURL       string `json:"imageUrl" validate:"omitempty,max=500"`
	Location       string `json:"location" validate:"omitempty,max=200"`
	Vaccinated     bool   `json:"vaccinated"`
	SpayedNeutered bool   `json:"spayedNeutered"`
	HouseTrained   bool   `json:"houseTrained"`
	GoodWithKids   bool   `json:"goodWithKids"`
	GoodWithPets   bool   `json:"goodWithPets"`
	Energy         string `json:"energy" validate:"omitempty,oneof=low medium high"`
	Size           string `json:"size" validate:"omitempty,oneof=small medium large extra-large"`
}

// UpdatePetRequest represents the request body for listing updates
type UpdatePetRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Breed          *string `json:"breed" validate:"omitempty,max=100"`
	Age            *int    `json:"age" validate:"omitempty,gte=0,lte=30"`
	HealthNotes    *string `json:"healthNotes" validate:"omitempty,max=2000"`
	ImageURL       *string `json:"imageUrl" validate:"omitempty,max=500"`
	Location       *string `json:"location" validate:"omitempty,max=200"`
	Vaccinated     *bool   `json:"vaccinated"`
	SpayedNeutered *bool   `json:"spayedNeutered"`
	HouseTrained   *bool   `json:"houseTrained"`
	GoodWithKids   *bool   `json:"goodWithKids"`
	GoodWithPets   *bool   `json:"goodWithPets"`
	Energy         *string `json:"energy" validate:"omitempty,oneof=low medium high"`
	Size           *string `json:"size" validate:"omitempty,oneof=small medium large extra-large"`
}

// MarkAdoptedRequest represents the request body for a walk-in adoption
type MarkAdoptedRequest struct {
	AdopterID *string `json:"adopterId" validate:"required"`
}

// ListPetsResponse wraps a catalog page
type ListPetsResponse struct {
	Pets       []*models.Pet      `json:"pets"`
	Pagination *models.Pagination `json:"pagination"`
}

// RegisterRoutes registers pet routes with the chi router; authMW is
// applied to the mutating subset.
func (h *PetHandler) RegisterRoutes(router chi.Router, authMW func(http.Handler) http.Handler) {
	router.Route("/pets", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/featured", h.ListFeatured)
		r.Get("/statistics", h.Statistics)
		r.Get("/{id}", h.Get)
		r.Get("/shelter/{shelterId}", h.ListByShelter)

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Post("/", h.Create)
			r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Put("/{id}", h.Update)
			r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Delete("/{id}", h.Delete)
			r.With(auth.RequireRole(models.RoleShelter, models.RoleAdmin)).Post("/{id}/adopted", h.MarkAdopted)
			r.With(auth.RequireRole(models.RoleAdmin)).Post("/{id}/featured", h.ToggleFeatured)
		})
	})
}

// List returns a filtered page of the catalog
func (h *PetHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.PetFilter{
		Breed:    q.Get("breed"),
		Location: q.Get("location"),
		Size:     q.Get("size"),
		Energy:   q.Get("energy"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
	}
	if v := q.Get("age"); v != "" {
		if age, err := strconv.Atoi(v); err == nil {
			filter.Age = &age
		}
	}
	filter.Vaccinated = queryBool(q.Get("vaccinated"))
	filter.SpayedNeutered = queryBool(q.Get("spayedNeutered"))
	filter.GoodWithKids = queryBool(q.Get("goodWithKids"))
	filter.GoodWithPets = queryBool(q.Get("goodWithPets"))

	page, limit := pageParams(r)

	pets, pagination, err := h.service.List(r.Context(), filter, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListPetsResponse{Pets: pets, Pagination: pagination})
}

// ListFeatured returns the featured pets
func (h *PetHandler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	limit := 6
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	pets, err := h.service.ListFeatured(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"pets": pets})
}

// Get returns one pet
func (h *PetHandler) Get(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "id")
	if petID == "" {
		pkghttp.WriteBadRequest(w, "Pet ID is required")
		return
	}

	pet, err := h.service.GetByID(r.Context(), petID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pet)
}

// ListByShelter returns one shelter's listings
func (h *PetHandler) ListByShelter(w http.ResponseWriter, r *http.Request) {
	shelterID := chi.URLParam(r, "shelterId")
	if shelterID == "" {
		pkghttp.WriteBadRequest(w, "Shelter ID is required")
		return
	}

	page, limit := pageParams(r)

	pets, pagination, err := h.service.ListByShelter(r.Context(), shelterID, r.URL.Query().Get("status"), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListPetsResponse{Pets: pets, Pagination: pagination})
}

// Create adds a new listing owned by the calling shelter
func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req CreatePetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pet, err := h.service.Create(r.Context(), claims.UserID, services.CreatePetInput{
		Name:           req.Name,
		Breed:          req.Breed,
		Age:            req.Age,
		HealthNotes:    req.HealthNotes,
		ImageURL:       req.ImageURL,
		Location:       req.Location,
		Vaccinated:     req.Vaccinated,
		SpayedNeutered: req.SpayedNeutered,
		HouseTrained:   req.HouseTrained,
		GoodWithKids:   req.GoodWithKids,
		GoodWithPets:   req.GoodWithPets,
		Energy:         req.Energy,
		Size:           req.Size,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, pet)
}

// Update modifies a listing
func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	petID := chi.URLParam(r, "id")
	if petID == "" {
		pkghttp.WriteBadRequest(w, "Pet ID is required")
		return
	}

	var req UpdatePetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pet, err := h.service.Update(r.Context(), petID, claims.UserID, claims.Role, services.UpdatePetInput{
		Name:           req.Name,
		Breed:          req.Breed,
		Age:            req.Age,
		HealthNotes:    req.HealthNotes,
		ImageURL:       req.ImageURL,
		Location:       req.Location,
		Vaccinated:     req.Vaccinated,
		SpayedNeutered: req.SpayedNeutered,
		HouseTrained:   req.HouseTrained,
		GoodWithKids:   req.GoodWithKids,
		GoodWithPets:   req.GoodWithPets,
		Energy:         req.Energy,
		Size:           req.Size,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pet)
}

// Delete removes a listing
func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	petID := chi.URLParam(r, "id")
	if petID == "" {
		pkghttp.WriteBadRequest(w, "Pet ID is required")
		return
	}

	if err := h.service.Delete(r.Context(), petID, claims.UserID, claims.Role); err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Pet deleted successfully"})
}

// MarkAdopted records a walk-in adoption outside the request workflow
func (h *PetHandler) MarkAdopted(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	petID := chi.URLParam(r, "id")
	if petID == "" {
		pkghttp.WriteBadRequest(w, "Pet ID is required")
		return
	}

	var req MarkAdoptedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pet, err := h.service.MarkAsAdopted(r.Context(), petID, claims.UserID, claims.Role, req.AdopterID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pet)
}

// ToggleFeatured flips the landing-page feature flag
func (h *PetHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	petID := chi.URLParam(r, "id")
	if petID == "" {
		pkghttp.WriteBadRequest(w, "Pet ID is required")
		return
	}

	pet, err := h.service.ToggleFeatured(r.Context(), petID, claims.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pet)
}

// Statistics returns catalog counts, optionally scoped by shelterId
func (h *PetHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStatistics(r.Context(), r.URL.Query().Get("shelterId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// queryBool parses an optional boolean query parameter.
func queryBool(v string) *bool {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// pageParams extracts page/limit query parameters with sane bounds.
func pageParams(r *http.Request) (int, int) {
	page := 1
	limit := 20

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return page, limit
}
