package users

import (
	"time"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = httpx.Errorf(httpx.ErrNotFound, "User not found")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = httpx.Errorf(httpx.ErrValidation, "Username already exists")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = httpx.Errorf(httpx.ErrValidation, "Email already exists")
	// ErrDeleteSelf guards against an administrator locking themselves out.
	ErrDeleteSelf = httpx.Errorf(httpx.ErrValidation, "Cannot delete your own account")
)

// User represents a store account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Flags        rbac.FlagColumns
	IsActive     bool
	CreatedAt    time.Time
}

// Identity resolves the user's permission model.
func (u User) Identity() rbac.Identity {
	return rbac.ResolveIdentity(u.Flags, u.Role)
}

// Permissions lists the granted capability names.
func (u User) Permissions() []string {
	return u.Identity().Capabilities().List()
}

// CreateInput carries a new account. Flags absent from the map are stored false.
type CreateInput struct {
	Username string
	Email    string
	Password string
	Flags    map[rbac.Capability]bool
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Email    *string
	Password *string
	IsActive *bool
	Flags    map[rbac.Capability]*bool
}

// Response is the public JSON shape of a user.
type Response struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        *string  `json:"role,omitempty"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions"`
}

// ToResponse renders u for clients.
func ToResponse(u User) Response {
	resp := Response{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		Permissions: u.Permissions(),
	}
	if _, legacy := u.Identity().(rbac.LegacyRole); legacy && u.Role != "" {
		role := u.Role
		resp.Role = &role
	}
	return resp
}

func explicitFlags(flags map[rbac.Capability]bool) rbac.FlagColumns {
	cols := make(rbac.FlagColumns, len(rbac.All))
	for _, c := range rbac.All {
		v := flags[c]
		cols[c] = &v
	}
	return cols
}

// AllFlags grants every capability.
func AllFlags() rbac.FlagColumns {
	granted := make(map[rbac.Capability]bool, len(rbac.All))
	for _, c := range rbac.All {
		granted[c] = true
	}
	return explicitFlags(granted)
}
