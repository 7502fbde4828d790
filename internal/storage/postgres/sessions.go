package postgres

import (
	"context"
	"time"

	"github.com/hongminglow/loft-be/internal/models"
)

// CreateSession stores a freshly issued session token.
func (s *Store) CreateSession(ctx context.Context, session models.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)`, session.UserID, session.Token, session.ExpiresAt)
	return mapError(err)
}

// FindActiveSession joins a live session to its user.
func (s *Store) FindActiveSession(ctx context.Context, token string, now time.Time) (models.Session, models.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT s.user_id, s.token, s.expires_at, s.created_at, `+userColumns+`
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2`, token, now)

	var session models.Session
	var user models.User
	err := row.Scan(&session.UserID, &session.Token, &session.ExpiresAt, &session.CreatedAt,
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &user.EmailVerified,
		&user.ResetToken, &user.ResetTokenExpires, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.Session{}, models.User{}, mapError(err)
	}
	return session, user, nil
}

// DeleteSession removes a session by token. Unknown tokens are not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE token = $1`, token)
	return mapError(err)
}
