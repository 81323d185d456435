// Package auth keeps the signed-in session: the user profile, the bearer
// token, and the password policy applied before account mutations.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"schedsync/internal/models"
	"schedsync/internal/store"
)

const (
	userKey  = "user"
	tokenKey = "token"
)

// ErrNotLoggedIn is returned when an operation needs a session and none is
// stored.
var ErrNotLoggedIn = errors.New("not logged in, run the 'login' command first")

// Credentials persists the session through the same string-keyed backend
// the activity store uses.
type Credentials struct {
	backend store.Backend
	logger  *slog.Logger
}

// NewCredentials returns a session store over the given backend.
func NewCredentials(logger *slog.Logger, backend store.Backend) *Credentials {
	return &Credentials{backend: backend, logger: logger}
}

// SaveSession records the signed-in user and the bearer token.
func (c *Credentials) SaveSession(user models.User, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}
	if err := c.backend.Set(userKey, data); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	if err := c.backend.Set(tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user, or ErrNotLoggedIn. A corrupt
// profile record counts as signed out.
func (c *Credentials) CurrentUser() (models.User, error) {
	data, err := c.backend.Get(userKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrNotLoggedIn
		}
		return models.User{}, fmt.Errorf("failed to read user profile: %w", err)
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		c.logger.Warn("Stored user profile is corrupt, treating as signed out.", "error", err)
		return models.User{}, ErrNotLoggedIn
	}
	return user, nil
}

// Token returns the stored bearer token, or "" when signed out. It
// satisfies the API client's TokenSource.
func (c *Credentials) Token() (string, error) {
	data, err := c.backend.Get(tokenKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return string(data), nil
}

// Clear removes the stored session on logout.
func (c *Credentials) Clear() error {
	if err := c.backend.Remove(userKey); err != nil {
		return err
	}
	return c.backend.Remove(tokenKey)
}
