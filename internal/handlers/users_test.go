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

func newUserRouter(svc UserServiceInterface) chi.Router {
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(testAuthMW())
		NewUserHandler(svc).RegisterRoutes(r)
	})
	return router
}

func TestGetProfile_RequiresAuth(t *testing.T) {
	router := newUserRouter(&MockUserService{})

	rec := doJSON(t, router, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProfile_Success(t *testing.T) {
	svc := &MockUserService{
		GetProfileFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			assert.Equal(t, "user-1", userID)
			return &services.UserResponse{ID: userID, Email: "alice@example.com", Name: "Alice", Role: "adopter"}, nil
		},
	}
	router := newUserRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/users/me", bearerToken(t, "user-1", models.RoleAdopter), nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var profile services.UserResponse
	decodeBody(t, rec, &profile)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestUpdateProfile_PassesPartialFields(t *testing.T) {
	var gotInput services.UpdateProfileInput
	svc := &MockUserService{
		UpdateProfileFunc: func(ctx context.Context, userID string, input services.UpdateProfileInput) (*services.UserResponse, error) {
			gotInput = input
			return &services.UserResponse{ID: userID}, nil
		},
	}
	router := newUserRouter(svc)

	rec := doJSON(t, router, http.MethodPut, "/users/me", bearerToken(t, "user-1", models.RoleAdopter), map[string]string{
		"location": "Denver",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, gotInput.Name)
	require.NotNil(t, gotInput.Location)
	assert.Equal(t, "Denver", *gotInput.Location)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc := &MockUserService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			return models.NewValidationError("Current password is incorrect")
		},
	}
	router := newUserRouter(svc)

	rec := doJSON(t, router, http.MethodPut, "/users/me/password", bearerToken(t, "user-1", models.RoleAdopter), map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "N3w!Passw0rd",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeactivateAccount(t *testing.T) {
	var gotUserID string
	svc := &MockUserService{
		DeactivateAccountFunc: func(ctx context.Context, userID string) error {
			gotUserID = userID
			return nil
		},
	}
	router := newUserRouter(svc)

	rec := doJSON(t, router, http.MethodDelete, "/users/me", bearerToken(t, "user-1", models.RoleAdopter), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUserID)
}

func TestGetPublicProfile(t *testing.T) {
	svc := &MockUserService{
		GetPublicProfileFunc: func(ctx context.Context, userID string) (*models.UserSummary, error) {
			return &models.UserSummary{ID: userID, Name: "Happy Paws", Location: "Austin"}, nil
		},
	}
	router := newUserRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/users/shelter-1", bearerToken(t, "user-1", models.RoleAdopter), nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.UserSummary
	decodeBody(t, rec, &summary)
	assert.Equal(t, "Happy Paws", summary.Name)
}
