package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload the scheduling service signs into its bearer
// tokens.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the claims of a bearer token without verifying its
// signature. The client holds no signing key; the server remains the
// authority, this is only used to read the owner id and expiry locally.
func ParseClaims(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}
	return &claims, nil
}

// Expired reports whether the stored session token carries an expiry in
// the past. An unparseable or expiry-free token is treated as live; the
// server rejects it with an authorization denial if it is not.
func (c *Credentials) Expired(now time.Time) bool {
	token, err := c.Token()
	if err != nil || token == "" {
		return false
	}
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}
