package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/carinotj19/ShelterSync/internal/services"
)

func newPetRouter(svc PetServiceInterface) chi.Router {
	router := chi.NewRouter()
	NewPetHandler(svc).RegisterRoutes(router, testAuthMW())
	return router
}

func TestListPets_ParsesFilters(t *testing.T) {
	var gotFilter models.PetFilter
	var gotPage, gotLimit int
	svc := &MockPetService{
		ListFunc: func(ctx context.Context, filter models.PetFilter, page, limit int) ([]*models.Pet, *models.Pagination, error) {
			gotFilter = filter
			gotPage, gotLimit = page, limit
			return []*models.Pet{}, models.NewPagination(page, limit, 0), nil
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/pets?breed=lab&size=large&goodWithKids=true&age=3&page=2&limit=5", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lab", gotFilter.Breed)
	assert.Equal(t, "large", gotFilter.Size)
	require.NotNil(t, gotFilter.GoodWithKids)
	assert.True(t, *gotFilter.GoodWithKids)
	require.NotNil(t, gotFilter.Age)
	assert.Equal(t, 3, *gotFilter.Age)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 5, gotLimit)
}

func TestListPets_ClampsPageParams(t *testing.T) {
	var gotPage, gotLimit int
	svc := &MockPetService{
		ListFunc: func(ctx context.Context, filter models.PetFilter, page, limit int) ([]*models.Pet, *models.Pagination, error) {
			gotPage, gotLimit = page, limit
			return nil, models.NewPagination(page, limit, 0), nil
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/pets?page=-1&limit=5000", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gotPage)
	assert.Equal(t, 20, gotLimit)
}

func TestGetPet_NotFound(t *testing.T) {
	router := newPetRouter(&MockPetService{})

	rec := doJSON(t, router, http.MethodGet, "/pets/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePet_RequiresShelterRole(t *testing.T) {
	router := newPetRouter(&MockPetService{})

	body := map[string]interface{}{"name": "Rex"}

	rec := doJSON(t, router, http.MethodPost, "/pets", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "anonymous requests rejected")

	rec = doJSON(t, router, http.MethodPost, "/pets", bearerToken(t, "adopter-1", models.RoleAdopter), body)
	assert.Equal(t, http.StatusForbidden, rec.Code, "adopters cannot create listings")
}

func TestCreatePet_Success(t *testing.T) {
	svc := &MockPetService{
		CreateFunc: func(ctx context.Context, shelterID string, input services.CreatePetInput) (*models.Pet, error) {
			assert.Equal(t, "shelter-1", shelterID)
			assert.Equal(t, "Rex", input.Name)
			return &models.Pet{ID: "pet-1", Name: input.Name, ShelterID: shelterID, Status: models.PetStatusAvailable}, nil
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/pets", bearerToken(t, "shelter-1", models.RoleShelter), map[string]interface{}{
		"name":   "Rex",
		"breed":  "Labrador",
		"age":    3,
		"energy": "high",
		"size":   "large",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var pet models.Pet
	decodeBody(t, rec, &pet)
	assert.Equal(t, "pet-1", pet.ID)
}

func TestCreatePet_InvalidEnergy(t *testing.T) {
	router := newPetRouter(&MockPetService{})

	rec := doJSON(t, router, http.MethodPost, "/pets", bearerToken(t, "shelter-1", models.RoleShelter), map[string]interface{}{
		"name":   "Rex",
		"energy": "hyperactive",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePet_ForbiddenForOtherShelter(t *testing.T) {
	svc := &MockPetService{
		UpdateFunc: func(ctx context.Context, petID, actorID, actorRole string, input services.UpdatePetInput) (*models.Pet, error) {
			return nil, models.ErrForbidden
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodPut, "/pets/pet-1", bearerToken(t, "shelter-2", models.RoleShelter), map[string]interface{}{
		"name": "Buddy",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeletePet_BlockedWhilePending(t *testing.T) {
	svc := &MockPetService{
		DeleteFunc: func(ctx context.Context, petID, actorID, actorRole string) error {
			return models.NewValidationError("Cannot delete a pet with pending adoption requests")
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodDelete, "/pets/pet-1", bearerToken(t, "shelter-1", models.RoleShelter), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAdopted_RequiresAdopterID(t *testing.T) {
	svc := &MockPetService{
		MarkAsAdoptedFunc: func(ctx context.Context, petID, actorID, actorRole string, adopterID *string) (*models.Pet, error) {
			t.Fatal("service must not be called without an adopter ID")
			return nil, nil
		},
	}
	router := newPetRouter(svc)

	token := bearerToken(t, "shelter-1", models.RoleShelter)

	rec := doJSON(t, router, http.MethodPost, "/pets/pet-1/adopted", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/pets/pet-1/adopted", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAdopted_PassesAdopterID(t *testing.T) {
	svc := &MockPetService{
		MarkAsAdoptedFunc: func(ctx context.Context, petID, actorID, actorRole string, adopterID *string) (*models.Pet, error) {
			require.NotNil(t, adopterID)
			assert.Equal(t, "adopter-1", *adopterID)
			return &models.Pet{ID: petID, Status: models.PetStatusAdopted, AdoptedBy: adopterID}, nil
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/pets/pet-1/adopted", bearerToken(t, "shelter-1", models.RoleShelter), map[string]string{
		"adopterId": "adopter-1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToggleFeatured_AdminOnly(t *testing.T) {
	svc := &MockPetService{
		ToggleFeaturedFunc: func(ctx context.Context, petID, actorRole string) (*models.Pet, error) {
			return &models.Pet{ID: petID, Featured: true}, nil
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/pets/pet-1/featured", bearerToken(t, "shelter-1", models.RoleShelter), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/pets/pet-1/featured", bearerToken(t, "admin-1", models.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPetStatistics_PassesShelterScope(t *testing.T) {
	svc := &MockPetService{
		GetStatisticsFunc: func(ctx context.Context, shelterID string) (*models.PetStatistics, error) {
			assert.Equal(t, "shelter-1", shelterID)
			return &models.PetStatistics{Total: 4, Available: 2}, nil
		},
	}
	router := newPetRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/pets/statistics?shelterId=shelter-1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
