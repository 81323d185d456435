package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"schedsync/internal/models"
	"schedsync/internal/store"
)

func newTestCredentials(t *testing.T) *Credentials {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	return NewCredentials(logger, backend)
}

func signedToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestSessionRoundTrip(t *testing.T) {
	creds := newTestCredentials(t)
	user := models.User{ID: "user-a", Email: "alice@example.com", Name: "Alice", LoginTime: 1700000000}

	if err := creds.SaveSession(user, "tok123"); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := creds.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if got != user {
		t.Fatalf("got user %+v, want %+v", got, user)
	}
	token, err := creds.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "tok123" {
		t.Fatalf("got token %q, want tok123", token)
	}
}

func TestCurrentUserWhenSignedOut(t *testing.T) {
	creds := newTestCredentials(t)
	if _, err := creds.CurrentUser(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("got %v, want ErrNotLoggedIn", err)
	}
	token, err := creds.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
}

func TestClear(t *testing.T) {
	creds := newTestCredentials(t)
	if err := creds.SaveSession(models.User{ID: "user-a"}, "tok"); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := creds.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := creds.CurrentUser(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("got %v, want ErrNotLoggedIn after Clear", err)
	}
	// A second logout against an empty store must not fail.
	if err := creds.Clear(); err != nil {
		t.Fatalf("repeated Clear failed: %v", err)
	}
}

func TestParseClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, "user-a", expiry)

	claims, err := ParseClaims(token)
	if err != nil {
		t.Fatalf("ParseClaims failed: %v", err)
	}
	if claims.UserID != "user-a" {
		t.Fatalf("got user id %q, want user-a", claims.UserID)
	}
	if !claims.ExpiresAt.Time.Equal(expiry) {
		t.Fatalf("got expiry %v, want %v", claims.ExpiresAt.Time, expiry)
	}
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	if _, err := ParseClaims("not-a-token"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"live token", signedToken(t, "user-a", now.Add(time.Hour)), false},
		{"expired token", signedToken(t, "user-a", now.Add(-time.Hour)), true},
		{"opaque token", "not-a-jwt", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			creds := newTestCredentials(t)
			if err := creds.SaveSession(models.User{ID: "user-a"}, tc.token); err != nil {
				t.Fatalf("SaveSession failed: %v", err)
			}
			if got := creds.Expired(now); got != tc.want {
				t.Fatalf("Expired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExpiredWhenSignedOut(t *testing.T) {
	creds := newTestCredentials(t)
	if creds.Expired(time.Now()) {
		t.Fatal("a missing session must not count as expired")
	}
}
