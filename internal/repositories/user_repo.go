package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/carinotj19/ShelterSync/internal/database"
	"github.com/carinotj19/ShelterSync/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, name, role, location, active, email_verified,
		email_verification_token, password_reset_token, password_reset_expires,
		login_attempts, lock_until, created_at, updated_at`

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var location *string

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Role, &location, &user.Active, &user.EmailVerified,
		&user.EmailVerificationToken, &user.PasswordResetToken, &user.PasswordResetExpires,
		&user.LoginAttempts, &user.LockUntil,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if location != nil {
		user.Location = *location
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUserRow(r.db.Querier(ctx).QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUserRow(r.db.Querier(ctx).QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE active ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Querier(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Active = true

	if user.Role == "" {
		user.Role = models.RoleAdopter
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, role, location, active, email_verified,
			email_verification_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns

	var location *string
	if user.Location != "" {
		location = &user.Location
	}

	return scanUserRow(r.db.Querier(ctx).QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.Role, location, user.Active, user.EmailVerified,
		user.EmailVerificationToken, user.CreatedAt, user.UpdatedAt,
	))
}

func (r *UserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET name = $1, role = $2, location = $3, active = $4, email_verified = $5,
			email_verification_token = $6, password_reset_token = $7, password_reset_expires = $8,
			login_attempts = $9, lock_until = $10, updated_at = $11
		WHERE id = $12
		RETURNING ` + userColumns

	var location *string
	if user.Location != "" {
		location = &user.Location
	}

	return scanUserRow(r.db.Querier(ctx).QueryRow(ctx, query,
		user.Name, user.Role, location, user.Active, user.EmailVerified,
		user.EmailVerificationToken, user.PasswordResetToken, user.PasswordResetExpires,
		user.LoginAttempts, user.LockUntil, user.UpdatedAt, id,
	))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, password_reset_token = NULL, password_reset_expires = NULL, updated_at = $2
		WHERE id = $3`

	result, err := r.db.Querier(ctx).Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Querier(ctx).Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// GetByResetToken looks up a user by the SHA-256 hash of a password
// reset token, requiring an unexpired token.
func (r *UserRepository) GetByResetToken(ctx context.Context, hashedToken string) (*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users WHERE password_reset_token = $1 AND password_reset_expires > $2`

	return scanUserRow(r.db.Querier(ctx).QueryRow(ctx, query, hashedToken, time.Now()))
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_verification_token = $1`

	return scanUserRow(r.db.Querier(ctx).QueryRow(ctx, query, token))
}

// RecordFailedLogin bumps the attempt counter and applies a lock once
// lockUntil is non-nil.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id string, lockUntil *time.Time) error {
	query := `
		UPDATE users
		SET login_attempts = login_attempts + 1, lock_until = COALESCE($1, lock_until), updated_at = $2
		WHERE id = $3`

	_, err := r.db.Querier(ctx).Exec(ctx, query, lockUntil, time.Now(), id)
	return database.MapPostgresError(err)
}

func (r *UserRepository) ResetLoginAttempts(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL, updated_at = $1
		WHERE id = $2`

	_, err := r.db.Querier(ctx).Exec(ctx, query, time.Now(), id)
	return database.MapPostgresError(err)
}

func (r *UserRepository) Count(ctx context.Context, role string) (int, error) {
	var count int
	var err error

	if role == "" {
		err = r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	} else {
		err = r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	}

	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// ClearExpiredResetTokens removes password reset tokens past their
// expiry. Run periodically by the cleanup manager.
func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL
		WHERE password_reset_expires IS NOT NULL AND password_reset_expires < $1`

	result, err := r.db.Querier(ctx).Exec(ctx, query, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// ClearExpiredLocks resets the attempt counter on accounts whose
// brute-force lock has lapsed.
func (r *UserRepository) ClearExpiredLocks(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL
		WHERE lock_until IS NOT NULL AND lock_until < $1`

	result, err := r.db.Querier(ctx).Exec(ctx, query, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
