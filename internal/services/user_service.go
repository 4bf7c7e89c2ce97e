package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carinotj19/ShelterSync/internal/models"
	pkgauth "github.com/carinotj19/ShelterSync/pkg/auth"
	pkglogger "github.com/carinotj19/ShelterSync/pkg/logger"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	GetByResetToken(ctx context.Context, hashedToken string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	RecordFailedLogin(ctx context.Context, id string, lockUntil *time.Time) error
	ResetLoginAttempts(ctx context.Context, id string) error
	Count(ctx context.Context, role string) (int, error)
}

// UserService handles user profile business logic
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in HTTP responses
type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Location      string `json:"location,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// ToUserResponse converts a user model to its response representation
func ToUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		Location:      user.Location,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     user.UpdatedAt.Format(time.RFC3339),
	}
}

// GetProfile returns the user's own profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return ToUserResponse(user), nil
}

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	Name     *string
	Location *string
}

// UpdateProfile updates the user's name and location
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Location != nil {
		user.Location = *input.Location
	}

	updated, err := s.repo.Update(ctx, userID, user)
	if err != nil {
		s.logger.Error("failed to update user profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user profile updated", slog.String("user_id", userID))

	return ToUserResponse(updated), nil
}

// ChangePassword verifies the current password and replaces it
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.auditLogger.LogPasswordChange(userID, "", false)
		return models.NewValidationError("Current password is incorrect")
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(userID, "", true)
	s.logger.Info("user changed password", slog.String("user_id", userID))

	return nil
}

// DeactivateAccount disables the caller's own account. The account and
// its data remain; login is refused until an admin reactivates it.
func (s *UserService) DeactivateAccount(ctx context.Context, userID string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.Role == models.RoleAdmin {
		return models.NewValidationError("Admin accounts cannot be deactivated")
	}

	user.Active = false
	if _, err := s.repo.Update(ctx, userID, user); err != nil {
		s.logger.Error("failed to deactivate user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_deactivated", userID, "", nil)
	s.logger.Info("user deactivated own account", slog.String("user_id", userID))

	return nil
}

// GetPublicProfile returns the reduced public view of a user, used on
// pet listings and request detail pages.
func (s *UserService) GetPublicProfile(ctx context.Context, userID string) (*models.UserSummary, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user.Summary(), nil
}
