package auth

import (
	"errors"
	"unicode"
)

// ErrWeakPassword is returned when a password fails the account policy.
var ErrWeakPassword = errors.New("password must be 8-100 characters with upper and lower case letters, at least 2 digits and no spaces")

// ValidatePassword enforces the account password policy: 8 to 100
// characters, at least one uppercase and one lowercase letter, at least
// two digits, no spaces.
func ValidatePassword(password string) error {
	runes := []rune(password)
	if len(runes) < 8 || len(runes) > 100 {
		return ErrWeakPassword
	}
	var upper, lower bool
	var digits int
	for _, r := range runes {
		switch {
		case unicode.IsSpace(r):
			return ErrWeakPassword
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digits++
		}
	}
	if !upper || !lower || digits < 2 {
		return ErrWeakPassword
	}
	return nil
}
