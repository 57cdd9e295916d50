package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/medalkraft/backend-medal/internal/common"
)

func TestParseAccessTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Now()
	svc.WithNow(func() time.Time { return fixed })

	token, expiry, err := svc.signAccessToken("user-id")
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	if !expiry.After(fixed) {
		t.Fatal("expected expiry in the future")
	}
	subject, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if subject != "user-id" {
		t.Fatalf("unexpected subject: %s", subject)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	svc, _ := newTestService(t)
	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })
	token, _, err := svc.signAccessToken("user-id")
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	svc.WithNow(time.Now)
	if _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newTestService(t)
	token, _, err := svc.signAccessToken("user-id")
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}

	other := newFakeRepo()
	stranger, err := NewService(Config{Repo: other, Secret: "a-different-secret"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := stranger.ParseAccessToken(token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestParseAccessTokenRejectsUnexpectedAlgorithm(t *testing.T) {
	svc, _ := newTestService(t)
	built, err := jwt.NewBuilder().
		Subject("user-id").
		Issuer("backend-medal").
		Audience([]string{"medal-storefront"}).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Minute)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS512, []byte("super-secret-key")))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(string(signed)); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "kim@example.com", "password1"},
		{"missing email", "Kim", "", "password1"},
		{"short password", "Kim", "kim@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.userName, tc.email, tc.password)
			var appErr *common.AppError
			if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Kim Minji", "minji@example.com", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(ctx, "Minji@Example.com", "password1", "go-test", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(repo.sessions))
	}

	refreshed, err := svc.Refresh(ctx, result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == result.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}

	// Old token is dead after rotation.
	if _, err := svc.Refresh(ctx, result.RefreshToken); err == nil {
		t.Fatal("expected rotated-away token to be rejected")
	}
	if _, err := svc.Refresh(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Kim Minji", "minji@example.com", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, "minji@example.com", "wrong-password", "", "")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}

	if _, err := svc.Login(ctx, "nobody@example.com", "password1", "", ""); err == nil {
		t.Fatal("expected unknown email to fail")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Kim Minji", "minji@example.com", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	result, err := svc.Login(ctx, "minji@example.com", "password1", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, result.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatalf("expected sessions to be revoked, got %d", len(repo.sessions))
	}
	if _, err := svc.Refresh(ctx, result.RefreshToken); err == nil {
		t.Fatal("expected refresh after logout to fail")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	outbox := &common.InMemoryEmail{}

	if _, err := svc.Register(ctx, "Kim Minji", "minji@example.com", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "minji@example.com", "password1", "", ""); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Forgot(ctx, "minji@example.com", "https://shop.example.com", outbox); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if len(outbox.Outbox) != 1 {
		t.Fatalf("expected one reset email, got %d", len(outbox.Outbox))
	}

	var token string
	for tok := range repo.resets {
		token = tok
	}
	if token == "" {
		t.Fatal("expected a reset token to be stored")
	}

	if err := svc.Reset(ctx, token, "new-password"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatal("expected all sessions revoked after reset")
	}

	if _, err := svc.Login(ctx, "minji@example.com", "password1", "", ""); err == nil {
		t.Fatal("expected old password to stop working")
	}
	if _, err := svc.Login(ctx, "minji@example.com", "new-password", "", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// Token is single use and gets purged with the user's resets.
	if err := svc.Reset(ctx, token, "another-password"); err == nil {
		t.Fatal("expected consumed token to be rejected")
	}
}

func TestForgotUnknownEmailIsSilent(t *testing.T) {
	svc, repo := newTestService(t)
	outbox := &common.InMemoryEmail{}

	if err := svc.Forgot(context.Background(), "ghost@example.com", "", outbox); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if len(outbox.Outbox) != 0 || len(repo.resets) != 0 {
		t.Fatal("expected no email and no token for unknown address")
	}
}
