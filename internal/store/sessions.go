package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateSessionParams carries the fields required to open a refresh session.
// RefreshToken must already be hashed by the caller.
type CreateSessionParams struct {
	UserID       uuid.UUID
	RefreshToken string
	UserAgent    *string
	IP           *string
	ExpiresAt    time.Time
}

// CreateSession persists a new refresh session.
func (s *Store) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	sess := Session{
		ID:           uuid.New(),
		UserID:       arg.UserID,
		RefreshToken: arg.RefreshToken,
		UserAgent:    arg.UserAgent,
		IP:           arg.IP,
		ExpiresAt:    arg.ExpiresAt,
		CreatedAt:    time.Now().UTC(),
	}
	sess.UpdatedAt = sess.CreatedAt
	_, err := s.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token, user_agent, ip, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.ID, sess.UserID, sess.RefreshToken, sess.UserAgent, sess.IP, sess.ExpiresAt, sess.CreatedAt, sess.UpdatedAt,
	)
	return sess, err
}

// GetSessionByToken loads a session by hashed refresh token.
func (s *Store) GetSessionByToken(ctx context.Context, refreshToken string) (Session, error) {
	var sess Session
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, refresh_token, user_agent, ip, expires_at, created_at, updated_at
		FROM sessions WHERE refresh_token = $1`, refreshToken,
	).Scan(&sess.ID, &sess.UserID, &sess.RefreshToken, &sess.UserAgent, &sess.IP, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	return sess, err
}

// RotateSessionToken swaps the hashed refresh token and extends the expiry.
func (s *Store) RotateSessionToken(ctx context.Context, id uuid.UUID, refreshToken string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE sessions SET refresh_token = $2, expires_at = $3, updated_at = now()
		WHERE id = $1`,
		id, refreshToken, expiresAt,
	)
	return err
}

// DeleteSessionByToken revokes the session holding the hashed refresh token.
func (s *Store) DeleteSessionByToken(ctx context.Context, refreshToken string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}

// DeleteSessionsByUser revokes every session of a user.
func (s *Store) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
