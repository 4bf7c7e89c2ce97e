package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carinotj19/ShelterSync/internal/auth"
	"github.com/carinotj19/ShelterSync/internal/config"
	"github.com/carinotj19/ShelterSync/internal/models"
	pkgauth "github.com/carinotj19/ShelterSync/pkg/auth"
)

const testPassword = "Str0ng!Passw0rd"

func newAuthFixture(repo *MockUserRepository) (*AuthService, *MockEmailService) {
	tm := auth.NewTokenManager("test-secret-that-is-long-enough-123456", 15*time.Minute, 24*time.Hour)
	email := &MockEmailService{}
	cfg := config.AuthConfig{
		MaxLoginAttempts: 3,
		LockoutDuration:  15 * time.Minute,
		ResetTokenExpiry: 10 * time.Minute,
	}
	svc := NewAuthService(repo, tm, email, cfg, "http://localhost:3000", newTestLogger(), newTestAuditLogger())
	return svc, email
}

func hashedTestPassword(t *testing.T) string {
	t.Helper()
	hash, err := pkgauth.HashPassword(testPassword)
	require.NoError(t, err)
	return hash
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	return &models.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hashedTestPassword(t),
		Name:         "Alice",
		Role:         models.RoleAdopter,
		Active:       true,
	}
}

func TestRegister_DefaultsToAdopter(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user-1"
			return user, nil
		},
	}
	svc, _ := newAuthFixture(repo)

	resp, err := svc.Register(context.Background(), RegisterInput{
		Email:    "New@Example.com",
		Password: testPassword,
		Name:     "New User",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleAdopter, resp.User.Role)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	svc, _ := newAuthFixture(&MockUserRepository{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: testPassword,
		Name:     "Sneaky",
		Role:     models.RoleAdmin,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}
	svc, _ := newAuthFixture(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "taken@example.com",
		Password: testPassword,
		Name:     "Dup",
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	svc, _ := newAuthFixture(&MockUserRepository{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "short",
		Name:     "Weak",
	})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestLogin_Success(t *testing.T) {
	user := activeUser(t)
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthFixture(repo)

	resp, err := svc.Login(context.Background(), "alice@example.com", testPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPasswordRecordsAttempt(t *testing.T) {
	user := activeUser(t)
	var recorded bool
	var recordedLock *time.Time
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordFailedLoginFunc: func(ctx context.Context, id string, lockUntil *time.Time) error {
			recorded = true
			recordedLock = lockUntil
			return nil
		},
	}
	svc, _ := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), "alice@example.com", "wrong-password", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.True(t, recorded)
	assert.Nil(t, recordedLock)
}

func TestLogin_FinalAttemptLocksAccount(t *testing.T) {
	user := activeUser(t)
	user.LoginAttempts = 2 // one failure away from the limit of 3

	var recordedLock *time.Time
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordFailedLoginFunc: func(ctx context.Context, id string, lockUntil *time.Time) error {
			recordedLock = lockUntil
			return nil
		},
	}
	svc, _ := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), "alice@example.com", "wrong-password", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	require.NotNil(t, recordedLock)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *recordedLock, time.Minute)
}

func TestLogin_LockedAccount(t *testing.T) {
	user := activeUser(t)
	until := time.Now().Add(10 * time.Minute)
	user.LockUntil = &until

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), "alice@example.com", testPassword, "")
	assert.ErrorIs(t, err, models.ErrAccountLocked)
}

func TestLogin_ExpiredLockAllowsLogin(t *testing.T) {
	user := activeUser(t)
	until := time.Now().Add(-time.Minute)
	user.LockUntil = &until
	user.LoginAttempts = 3

	var attemptsReset bool
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		ResetLoginAttemptsFunc: func(ctx context.Context, id string) error {
			attemptsReset = true
			return nil
		},
	}
	svc, _ := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), "alice@example.com", testPassword, "")
	require.NoError(t, err)
	assert.True(t, attemptsReset)
}

func TestLogin_DisabledAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false

	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), "alice@example.com", testPassword, "")
	assert.ErrorIs(t, err, models.ErrAccountDisabled)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(&MockUserRepository{})

	_, err := svc.Login(context.Background(), "nobody@example.com", testPassword, "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestRefreshTokens_RejectsAccessToken(t *testing.T) {
	user := activeUser(t)
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}
	svc, _ := newAuthFixture(repo)

	resp, err := svc.Login(context.Background(), "alice@example.com", testPassword, "")
	require.NoError(t, err)

	_, err = svc.RefreshTokens(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	refreshed, err := svc.RefreshTokens(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestVerifyEmail(t *testing.T) {
	user := activeUser(t)
	token := "verification-token"
	user.EmailVerificationToken = &token

	var updated *models.User
	repo := &MockUserRepository{
		GetByVerificationTokenFunc: func(ctx context.Context, tok string) (*models.User, error) {
			if tok == token {
				return user, nil
			}
			return nil, models.ErrNotFound
		},
		UpdateFunc: func(ctx context.Context, id string, u *models.User) (*models.User, error) {
			updated = u
			return u, nil
		},
	}
	svc, _ := newAuthFixture(repo)

	err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.EmailVerified)
	assert.Nil(t, updated.EmailVerificationToken)

	err = svc.VerifyEmail(context.Background(), "bogus")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestForgotPassword_UnknownEmailSilent(t *testing.T) {
	svc, email := newAuthFixture(&MockUserRepository{})

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, email.SentCount())
}

func TestForgotPassword_StoresHashedToken(t *testing.T) {
	user := activeUser(t)
	var updated *models.User
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		UpdateFunc: func(ctx context.Context, id string, u *models.User) (*models.User, error) {
			updated = u
			return u, nil
		},
	}
	svc, _ := newAuthFixture(repo)

	err := svc.ForgotPassword(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.NotNil(t, updated.PasswordResetToken)
	// The stored value is a sha256 hex digest, never the raw token.
	assert.Len(t, *updated.PasswordResetToken, 64)
	require.NotNil(t, updated.PasswordResetExpires)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *updated.PasswordResetExpires, time.Minute)
}

func TestResetPassword(t *testing.T) {
	user := activeUser(t)
	var newHash string
	repo := &MockUserRepository{
		GetByResetTokenFunc: func(ctx context.Context, hashedToken string) (*models.User, error) {
			return user, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc, _ := newAuthFixture(repo)

	err := svc.ResetPassword(context.Background(), "raw-token", "An0ther!Passw0rd")
	require.NoError(t, err)
	assert.NoError(t, pkgauth.ComparePassword(newHash, "An0ther!Passw0rd"))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc, _ := newAuthFixture(&MockUserRepository{})

	err := svc.ResetPassword(context.Background(), "bogus", "An0ther!Passw0rd")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
