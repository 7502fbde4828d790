package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/loft-be/internal/models"
)

const userColumns = `u.id, u.email, COALESCE(u.password_hash, ''), u.full_name, u.role, u.email_verified,
	u.reset_token, u.reset_token_expires, u.last_login, u.created_at, u.updated_at`

// CreateUser inserts a new user row. A taken email yields storage.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		WITH u AS (
			INSERT INTO users (email, password_hash, full_name, role, email_verified)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *
		)
		SELECT ` + userColumns + ` FROM u`
	row := s.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, user.FullName, user.Role, user.EmailVerified)
	return scanUser(row)
}

// FindUserByEmail fetches a user by exact email match.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email)
	return scanUser(row)
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return expectRow(s.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, userID, at))
}

// SetResetToken stores a password reset token for the user owning email.
func (s *Store) SetResetToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	return expectRow(s.pool.Exec(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expires = $3, updated_at = NOW()
		WHERE email = $1`, email, token, expiresAt))
}

// ResetPassword swaps the password hash for the holder of a live reset token and signs them out everywhere.
func (s *Store) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var userID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE users
			SET password_hash = $2, reset_token = NULL, reset_token_expires = NULL, updated_at = NOW()
			WHERE reset_token = $1 AND reset_token_expires > $3
			RETURNING id`, token, passwordHash, now).Scan(&userID)
		if err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID); err != nil {
			return mapError(err)
		}
		return nil
	})
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &user.EmailVerified,
		&user.ResetToken, &user.ResetTokenExpires, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}
