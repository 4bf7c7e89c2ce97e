package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carinotj19/ShelterSync/internal/models"
)

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Name: "Alice", Location: "Austin"}, nil
		},
		UpdateFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			return user, nil
		},
	}
	svc := NewUserService(repo, newTestLogger(), newTestAuditLogger())

	location := "Denver"
	profile, err := svc.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{Location: &location})
	require.NoError(t, err)

	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "Denver", profile.Location)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, PasswordHash: hashedTestPassword(t)}, nil
		},
	}
	svc := NewUserService(repo, newTestLogger(), newTestAuditLogger())

	err := svc.ChangePassword(context.Background(), "user-1", "not-the-password", "An0ther!Passw0rd")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestChangePassword_Success(t *testing.T) {
	var updatedHash string
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, PasswordHash: hashedTestPassword(t)}, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			updatedHash = passwordHash
			return nil
		},
	}
	svc := NewUserService(repo, newTestLogger(), newTestAuditLogger())

	err := svc.ChangePassword(context.Background(), "user-1", testPassword, "An0ther!Passw0rd")
	require.NoError(t, err)
	assert.NotEmpty(t, updatedHash)
}

func TestDeactivateAccount_SetsInactive(t *testing.T) {
	var saved *models.User
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdopter, Active: true}, nil
		},
		UpdateFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			saved = user
			return user, nil
		},
	}
	svc := NewUserService(repo, newTestLogger(), newTestAuditLogger())

	err := svc.DeactivateAccount(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.False(t, saved.Active)
}

func TestDeactivateAccount_AdminRefused(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdmin, Active: true}, nil
		},
	}
	svc := NewUserService(repo, newTestLogger(), newTestAuditLogger())

	err := svc.DeactivateAccount(context.Background(), "admin-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestGetPublicProfile_OmitsSensitiveFields(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{
				ID:           id,
				Name:         "Happy Paws",
				Email:        "shelter@example.com",
				Location:     "Austin",
				PasswordHash: "secret",
			}, nil
		},
	}
	svc := NewUserService(repo, newTestLogger(), newTestAuditLogger())

	summary, err := svc.GetPublicProfile(context.Background(), "shelter-1")
	require.NoError(t, err)

	assert.Equal(t, "Happy Paws", summary.Name)
	assert.Equal(t, "Austin", summary.Location)
}
