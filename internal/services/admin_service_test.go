package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carinotj19/ShelterSync/internal/models"
)

type stubAdminPetStore struct {
	deletedShelter string
	deleteCount    int64
	stats          *models.PetStatistics
}

func (s *stubAdminPetStore) DeleteByShelter(ctx context.Context, shelterID string) (int64, error) {
	s.deletedShelter = shelterID
	return s.deleteCount, nil
}

func (s *stubAdminPetStore) Statistics(ctx context.Context, shelterID string) (*models.PetStatistics, error) {
	if s.stats != nil {
		return s.stats, nil
	}
	return &models.PetStatistics{}, nil
}

type stubAdminAdoptionStore struct {
	deletedAdopter string
	deleteCount    int64
	stats          *models.AdoptionStatistics
}

func (s *stubAdminAdoptionStore) DeleteByAdopter(ctx context.Context, adopterID string) (int64, error) {
	s.deletedAdopter = adopterID
	return s.deleteCount, nil
}

func (s *stubAdminAdoptionStore) Statistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error) {
	if s.stats != nil {
		return s.stats, nil
	}
	return &models.AdoptionStatistics{}, nil
}

func TestDeleteUser_ShelterCascadesPets(t *testing.T) {
	var userDeleted string
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleShelter}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			userDeleted = id
			return nil
		},
	}
	pets := &stubAdminPetStore{deleteCount: 3}
	adoptions := &stubAdminAdoptionStore{}
	svc := NewAdminService(repo, pets, adoptions, newTestLogger(), newTestAuditLogger())

	err := svc.DeleteUser(context.Background(), "admin-1", "shelter-1")
	require.NoError(t, err)

	assert.Equal(t, "shelter-1", pets.deletedShelter)
	assert.Empty(t, adoptions.deletedAdopter)
	assert.Equal(t, "shelter-1", userDeleted)
}

func TestDeleteUser_AdopterCascadesRequests(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdopter}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error { return nil },
	}
	pets := &stubAdminPetStore{}
	adoptions := &stubAdminAdoptionStore{deleteCount: 2}
	svc := NewAdminService(repo, pets, adoptions, newTestLogger(), newTestAuditLogger())

	err := svc.DeleteUser(context.Background(), "admin-1", "adopter-1")
	require.NoError(t, err)

	assert.Equal(t, "adopter-1", adoptions.deletedAdopter)
	assert.Empty(t, pets.deletedShelter)
}

func TestDeleteUser_AdminNotDeletable(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdmin}, nil
		},
	}
	svc := NewAdminService(repo, &stubAdminPetStore{}, &stubAdminAdoptionStore{}, newTestLogger(), newTestAuditLogger())

	err := svc.DeleteUser(context.Background(), "admin-1", "admin-2")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUpdateUserRole(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdopter}, nil
		},
		UpdateFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			return user, nil
		},
	}
	svc := NewAdminService(repo, &stubAdminPetStore{}, &stubAdminAdoptionStore{}, newTestLogger(), newTestAuditLogger())

	user, err := svc.UpdateUserRole(context.Background(), "admin-1", "user-1", models.RoleShelter)
	require.NoError(t, err)
	assert.Equal(t, models.RoleShelter, user.Role)

	_, err = svc.UpdateUserRole(context.Background(), "admin-1", "user-1", "superuser")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUpdateUserRole_AdminNotGrantable(t *testing.T) {
	svc := NewAdminService(&MockUserRepository{}, &stubAdminPetStore{}, &stubAdminAdoptionStore{}, newTestLogger(), newTestAuditLogger())

	_, err := svc.UpdateUserRole(context.Background(), "admin-1", "user-1", models.RoleAdmin)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUpdateUserRole_AdminImmutable(t *testing.T) {
	var updated bool
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdmin}, nil
		},
		UpdateFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			updated = true
			return user, nil
		},
	}
	svc := NewAdminService(repo, &stubAdminPetStore{}, &stubAdminAdoptionStore{}, newTestLogger(), newTestAuditLogger())

	_, err := svc.UpdateUserRole(context.Background(), "admin-1", "admin-2", models.RoleShelter)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.False(t, updated, "admin role must never be written")
}

func TestSetUserActive_AdminCannotBeDeactivated(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleAdmin, Active: true}, nil
		},
	}
	svc := NewAdminService(repo, &stubAdminPetStore{}, &stubAdminAdoptionStore{}, newTestLogger(), newTestAuditLogger())

	_, err := svc.SetUserActive(context.Background(), "admin-1", "admin-2", false)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestGetPlatformStatistics(t *testing.T) {
	repo := &MockUserRepository{
		CountFunc: func(ctx context.Context, role string) (int, error) {
			switch role {
			case models.RoleAdopter:
				return 10, nil
			case models.RoleShelter:
				return 4, nil
			default:
				return 1, nil
			}
		},
	}
	pets := &stubAdminPetStore{stats: &models.PetStatistics{Total: 20, Available: 12}}
	adoptions := &stubAdminAdoptionStore{stats: &models.AdoptionStatistics{Total: 15, Approved: 5}}
	svc := NewAdminService(repo, pets, adoptions, newTestLogger(), newTestAuditLogger())

	stats, err := svc.GetPlatformStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, stats.Users[models.RoleAdopter])
	assert.Equal(t, 4, stats.Users[models.RoleShelter])
	assert.Equal(t, 20, stats.Pets.Total)
	assert.Equal(t, 5, stats.Adoptions.Approved)
}
