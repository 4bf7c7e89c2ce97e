package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/config"
	"github.com/carinotj19/ShelterSync/internal/models"
	pkgauth "github.com/carinotj19/ShelterSync/pkg/auth"
	pkglogger "github.com/carinotj19/ShelterSync/pkg/logger"
)

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	email       EmailService
	cfg         config.AuthConfig
	clientURL   string
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tm *auth.TokenManager, email EmailService, cfg config.AuthConfig, clientURL string, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		email:       email,
		cfg:         cfg,
		clientURL:   clientURL,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         *UserResponse `json:"user"`
}

// RegisterInput carries signup fields.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
	Location string
}

// Register creates a new adopter or shelter account. Admin accounts are
// never self-assignable.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	role := input.Role
	if role == "" {
		role = models.RoleAdopter
	}
	if role != models.RoleAdopter && role != models.RoleShelter {
		return nil, models.NewValidationError("Role must be adopter or shelter")
	}

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	verificationToken, err := generateToken()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:                  email,
		PasswordHash:           hash,
		Name:                   strings.TrimSpace(input.Name),
		Role:                   role,
		Location:               strings.TrimSpace(input.Location),
		EmailVerificationToken: &verificationToken,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.NewValidationError("An account with this email already exists")
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.clientURL, verificationToken)
	s.sendAsync(created.Email, verificationEmail(created.Name, link))

	s.logger.Info("user registered",
		slog.String("user_id", created.ID),
		slog.String("role", created.Role),
		slog.String("email", pkglogger.SanitizedEmail(created.Email)))
	s.auditLogger.LogAccountAction("user_registered", created.ID, "", nil)

	return s.tokenResponse(created)
}

// Login authenticates a user and returns a token pair. Repeated
// failures lock the account for the configured duration. ipAddress is
// recorded in the audit trail only.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_disabled",
			Success:       false,
		})
		return nil, models.ErrAccountDisabled
	}

	if user.IsLocked(s.now()) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, models.ErrAccountLocked
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		var lockUntil *time.Time
		if user.LoginAttempts+1 >= s.cfg.MaxLoginAttempts {
			until := s.now().Add(s.cfg.LockoutDuration)
			lockUntil = &until
		}
		if err := s.repo.RecordFailedLogin(ctx, user.ID, lockUntil); err != nil {
			s.logger.Error("failed to record login attempt", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		if lockUntil != nil {
			s.logger.Warn("account locked after repeated failures", slog.String("user_id", user.ID))
		}
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	if user.LoginAttempts > 0 || user.LockUntil != nil {
		if err := s.repo.ResetLoginAttempts(ctx, user.ID); err != nil {
			s.logger.Error("failed to reset login attempts", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return s.tokenResponse(user)
}

// RefreshTokens exchanges a valid refresh token for a new token pair
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.Active {
		return nil, models.ErrAccountDisabled
	}

	return s.tokenResponse(user)
}

// VerifyEmail marks the account verified via its emailed token
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return models.NewValidationError("Verification token is required")
	}

	user, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewValidationError("Invalid or expired verification token")
		}
		s.logger.Error("failed to look up verification token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user.EmailVerified = true
	user.EmailVerificationToken = nil
	if _, err := s.repo.Update(ctx, user.ID, user); err != nil {
		s.logger.Error("failed to verify email", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("user_id", user.ID))
	return nil
}

// ForgotPassword issues a short-lived reset token. Unknown emails are
// acknowledged identically so the endpoint cannot enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, err := generateToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Only the hash is stored; the raw token travels in the email.
	hashed := hashToken(token)
	expires := s.now().Add(s.cfg.ResetTokenExpiry)
	user.PasswordResetToken = &hashed
	user.PasswordResetExpires = &expires

	if _, err := s.repo.Update(ctx, user.ID, user); err != nil {
		s.logger.Error("failed to store reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.clientURL, token)
	s.sendAsync(user.Email, passwordResetEmail(user.Name, link, s.cfg.ResetTokenExpiry))

	s.logger.Info("password reset token issued", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return models.NewValidationError("Reset token is required")
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.repo.GetByResetToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewValidationError("Invalid or expired reset token")
		}
		s.logger.Error("failed to look up reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to reset password", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.ResetLoginAttempts(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset login attempts", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.auditLogger.LogPasswordChange(user.ID, "", true)
	s.logger.Info("password reset completed", slog.String("user_id", user.ID))
	return nil
}

func (s *AuthService) tokenResponse(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         ToUserResponse(user),
	}, nil
}

func (s *AuthService) sendAsync(to string, msg emailMessage) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.email.Send(ctx, to, msg.Subject, msg.HTMLBody, msg.TextBody); err != nil {
			s.logger.Error("failed to send auth email",
				slog.String("subject", msg.Subject),
				slog.Any("error", err))
		}
	}()
}

// generateToken returns a URL-safe random token for email flows.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
