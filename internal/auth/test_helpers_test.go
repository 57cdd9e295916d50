package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medalkraft/backend-medal/internal/store"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	users    map[uuid.UUID]store.User
	byEmail  map[string]uuid.UUID
	sessions map[uuid.UUID]store.Session
	resets   map[string]store.PasswordReset
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    map[uuid.UUID]store.User{},
		byEmail:  map[string]uuid.UUID{},
		sessions: map[uuid.UUID]store.Session{},
		resets:   map[string]store.PasswordReset{},
	}
}

var errNotFound = errors.New("not found")

func (f *fakeRepo) CreateUser(_ context.Context, arg store.CreateUserParams) (store.User, error) {
	if _, exists := f.byEmail[arg.Email]; exists {
		return store.User{}, errors.New("duplicate email")
	}
	u := store.User{
		ID:           uuid.New(),
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	u.UpdatedAt = u.CreatedAt
	f.users[u.ID] = u
	f.byEmail[u.Email] = u.ID
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return store.User{}, errNotFound
	}
	return f.users[id], nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return store.User{}, errNotFound
	}
	return u, nil
}

func (f *fakeRepo) UpdateUserPassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return errNotFound
	}
	u.PasswordHash = passwordHash
	f.users[id] = u
	return nil
}

func (f *fakeRepo) CreateSession(_ context.Context, arg store.CreateSessionParams) (store.Session, error) {
	sess := store.Session{
		ID:           uuid.New(),
		UserID:       arg.UserID,
		RefreshToken: arg.RefreshToken,
		UserAgent:    arg.UserAgent,
		IP:           arg.IP,
		ExpiresAt:    arg.ExpiresAt,
		CreatedAt:    time.Now().UTC(),
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeRepo) GetSessionByToken(_ context.Context, refreshToken string) (store.Session, error) {
	for _, sess := range f.sessions {
		if sess.RefreshToken == refreshToken {
			return sess, nil
		}
	}
	return store.Session{}, errNotFound
}

func (f *fakeRepo) RotateSessionToken(_ context.Context, id uuid.UUID, refreshToken string, expiresAt time.Time) error {
	sess, ok := f.sessions[id]
	if !ok {
		return errNotFound
	}
	sess.RefreshToken = refreshToken
	sess.ExpiresAt = expiresAt
	f.sessions[id] = sess
	return nil
}

func (f *fakeRepo) DeleteSessionByToken(_ context.Context, refreshToken string) error {
	for id, sess := range f.sessions {
		if sess.RefreshToken == refreshToken {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeRepo) DeleteSessionsByUser(_ context.Context, userID uuid.UUID) error {
	for id, sess := range f.sessions {
		if sess.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeRepo) CreatePasswordReset(_ context.Context, arg store.CreatePasswordResetParams) (store.PasswordReset, error) {
	pr := store.PasswordReset{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		Token:     arg.Token,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}
	f.resets[pr.Token] = pr
	return pr, nil
}

func (f *fakeRepo) GetPasswordResetByToken(_ context.Context, token string) (store.PasswordReset, error) {
	pr, ok := f.resets[token]
	if !ok {
		return store.PasswordReset{}, errNotFound
	}
	return pr, nil
}

func (f *fakeRepo) UsePasswordReset(_ context.Context, token string) error {
	pr, ok := f.resets[token]
	if !ok {
		return errNotFound
	}
	now := time.Now().UTC()
	pr.UsedAt = &now
	f.resets[token] = pr
	return nil
}

func (f *fakeRepo) DeletePasswordResetsByUser(_ context.Context, userID uuid.UUID) error {
	for token, pr := range f.resets {
		if pr.UserID == userID {
			delete(f.resets, token)
		}
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	svc, err := NewService(Config{
		Repo:            repo,
		Secret:          "super-secret-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ResetTokenTTL:   time.Hour,
		Issuer:          "backend-medal",
		Audience:        "medal-storefront",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}
