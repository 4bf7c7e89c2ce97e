package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carinotj19/ShelterSync/internal/models"
	pkglogger "github.com/carinotj19/ShelterSync/pkg/logger"
)

// AdminPetStore is the slice of pet persistence admin operations need.
type AdminPetStore interface {
	DeleteByShelter(ctx context.Context, shelterID string) (int64, error)
	Statistics(ctx context.Context, shelterID string) (*models.PetStatistics, error)
}

// AdminAdoptionStore is the slice of request persistence admin
// operations need.
type AdminAdoptionStore interface {
	DeleteByAdopter(ctx context.Context, adopterID string) (int64, error)
	Statistics(ctx context.Context, shelterID string) (*models.AdoptionStatistics, error)
}

// AdminService handles platform administration
type AdminService struct {
	users       UserRepository
	pets        AdminPetStore
	adoptions   AdminAdoptionStore
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAdminService creates a new AdminService
func NewAdminService(users UserRepository, pets AdminPetStore, adoptions AdminAdoptionStore, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AdminService {
	return &AdminService{
		users:       users,
		pets:        pets,
		adoptions:   adoptions,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// ListUsers returns a page of active users
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) ([]*UserResponse, *models.Pagination, error) {
	offset := (page - 1) * limit

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	total, err := s.users.Count(ctx, "")
	if err != nil {
		s.logger.Error("failed to count users", slog.Any("error", err))
		return nil, nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, ToUserResponse(user))
	}

	return responses, models.NewPagination(page, limit, total), nil
}

// UpdateUserRole switches a user between adopter and shelter. The admin
// role is never granted this way, and admin accounts keep their role.
func (s *AdminService) UpdateUserRole(ctx context.Context, adminID, userID, role string) (*UserResponse, error) {
	if role != models.RoleAdopter && role != models.RoleShelter {
		return nil, models.NewValidationError("Role must be adopter or shelter")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.Role == models.RoleAdmin {
		return nil, models.NewValidationError("Admin roles cannot be changed")
	}

	user.Role = role
	updated, err := s.users.Update(ctx, userID, user)
	if err != nil {
		s.logger.Error("failed to update user role", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user role updated",
		slog.String("admin_id", adminID),
		slog.String("user_id", userID),
		slog.String("role", role))
	s.auditLogger.LogAccountAction("role_updated", userID, "", map[string]string{"role": role, "admin_id": adminID})

	return ToUserResponse(updated), nil
}

// SetUserActive enables or disables an account
func (s *AdminService) SetUserActive(ctx context.Context, adminID, userID string, active bool) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.Role == models.RoleAdmin && !active {
		return nil, models.NewValidationError("Admin accounts cannot be deactivated")
	}

	user.Active = active
	updated, err := s.users.Update(ctx, userID, user)
	if err != nil {
		s.logger.Error("failed to update user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	action := "user_deactivated"
	if active {
		action = "user_activated"
	}
	s.auditLogger.LogAccountAction(action, userID, "", map[string]string{"admin_id": adminID})

	return ToUserResponse(updated), nil
}

// DeleteUser removes an account and cascades its domain data: a
// shelter's pets are deleted, an adopter's requests are deleted. Admin
// accounts are not deletable.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.Role == models.RoleAdmin {
		return models.NewValidationError("Admin accounts cannot be deleted")
	}

	switch user.Role {
	case models.RoleShelter:
		deleted, err := s.pets.DeleteByShelter(ctx, userID)
		if err != nil {
			s.logger.Error("failed to delete shelter pets", slog.String("shelter_id", userID), slog.Any("error", err))
			return models.ErrInternalServer
		}
		s.logger.Info("deleted shelter pets", slog.String("shelter_id", userID), slog.Int64("count", deleted))
	case models.RoleAdopter:
		deleted, err := s.adoptions.DeleteByAdopter(ctx, userID)
		if err != nil {
			s.logger.Error("failed to delete adopter requests", slog.String("adopter_id", userID), slog.Any("error", err))
			return models.ErrInternalServer
		}
		s.logger.Info("deleted adopter requests", slog.String("adopter_id", userID), slog.Int64("count", deleted))
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		s.logger.Error("failed to delete user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted",
		slog.String("admin_id", adminID),
		slog.String("user_id", userID),
		slog.String("role", user.Role))
	s.auditLogger.LogAccountAction("user_deleted", userID, "", map[string]string{"admin_id": adminID})

	return nil
}

// PlatformStatistics aggregates cross-domain counts for the admin
// dashboard.
type PlatformStatistics struct {
	Users     map[string]int             `json:"users"`
	Pets      *models.PetStatistics      `json:"pets"`
	Adoptions *models.AdoptionStatistics `json:"adoptions"`
}

// GetPlatformStatistics returns platform-wide counts
func (s *AdminService) GetPlatformStatistics(ctx context.Context) (*PlatformStatistics, error) {
	userCounts := make(map[string]int, 3)
	for _, role := range []string{models.RoleAdopter, models.RoleShelter, models.RoleAdmin} {
		count, err := s.users.Count(ctx, role)
		if err != nil {
			s.logger.Error("failed to count users", slog.String("role", role), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		userCounts[role] = count
	}

	petStats, err := s.pets.Statistics(ctx, "")
	if err != nil {
		s.logger.Error("failed to get pet statistics", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	adoptionStats, err := s.adoptions.Statistics(ctx, "")
	if err != nil {
		s.logger.Error("failed to get adoption statistics", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &PlatformStatistics{
		Users:     userCounts,
		Pets:      petStats,
		Adoptions: adoptionStats,
	}, nil
}
