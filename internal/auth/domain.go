package auth

import (
	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/users"
)

var (
	// ErrInvalidLogin is returned for any unknown username or wrong password.
	ErrInvalidLogin = httpx.Errorf(httpx.ErrUnauthorized, "Invalid username or password")
	// ErrExpiredToken is returned for a well-formed token past its expiry.
	ErrExpiredToken = httpx.Errorf(httpx.ErrUnauthorized, "Token has expired")
	// ErrInvalidToken covers every other token failure.
	ErrInvalidToken = httpx.Errorf(httpx.ErrUnauthorized, "Invalid authentication credentials")
	// ErrMissingCredentials is returned when a username or password is blank.
	ErrMissingCredentials = httpx.Errorf(httpx.ErrValidation, "Username and password are required")
	// ErrPasswordTooShort is returned by registration for passwords under six characters.
	ErrPasswordTooShort = httpx.Errorf(httpx.ErrValidation, "Password must be at least 6 characters long")
)

const minPasswordLength = 6

// LoginResult is returned after a successful login.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        users.Response `json:"user"`
}

// PermissionsView describes what the caller may do.
type PermissionsView struct {
	User               users.Response  `json:"user"`
	Permissions        []string        `json:"permissions"`
	AccessibleFeatures map[string]bool `json:"accessible_features"`
}
