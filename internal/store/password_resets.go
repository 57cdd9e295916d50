package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreatePasswordResetParams carries the fields required to issue a reset token.
type CreatePasswordResetParams struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// CreatePasswordReset persists a single-use reset token.
func (s *Store) CreatePasswordReset(ctx context.Context, arg CreatePasswordResetParams) (PasswordReset, error) {
	pr := PasswordReset{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		Token:     arg.Token,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO password_resets (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		pr.ID, pr.UserID, pr.Token, pr.ExpiresAt, pr.CreatedAt,
	)
	return pr, err
}

// GetPasswordResetByToken loads a reset token.
func (s *Store) GetPasswordResetByToken(ctx context.Context, token string) (PasswordReset, error) {
	var pr PasswordReset
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets WHERE token = $1`, token,
	).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &pr.UsedAt, &pr.CreatedAt)
	return pr, err
}

// UsePasswordReset marks a reset token as consumed.
func (s *Store) UsePasswordReset(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `UPDATE password_resets SET used_at = now() WHERE token = $1`, token)
	return err
}

// DeletePasswordResetsByUser removes every reset token of a user.
func (s *Store) DeletePasswordResetsByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, userID)
	return err
}
