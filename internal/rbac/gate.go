package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirana-store/kirana/internal/platform/httpx"
)

// ErrIdentityNotFound is returned when the username has no stored user.
var ErrIdentityNotFound = httpx.Errorf(httpx.ErrNotFound, "User not found")

// Subject is a loaded user with its resolved permission model.
type Subject struct {
	UserID   int64
	Username string
	Identity Identity
}

// IdentityLoader fetches a Subject by username, returning ErrIdentityNotFound
// when none exists.
type IdentityLoader interface {
	LoadSubject(ctx context.Context, username string) (Subject, error)
}

// Gate answers capability checks.
type Gate struct {
	loader IdentityLoader
}

// NewGate constructs a Gate.
func NewGate(loader IdentityLoader) *Gate {
	return &Gate{loader: loader}
}

// Authorize fails with ErrIdentityNotFound or a forbidden error whose detail
// depends on the identity kind.
func (g *Gate) Authorize(ctx context.Context, username string, c Capability) error {
	_, err := g.AuthorizeSubject(ctx, username, c)
	return err
}

// AuthorizeSubject is Authorize returning the loaded subject on success.
func (g *Gate) AuthorizeSubject(ctx context.Context, username string, c Capability) (Subject, error) {
	subject, err := g.loader.LoadSubject(ctx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Subject{}, ErrIdentityNotFound
		}
		return Subject{}, fmt.Errorf("rbac: load subject: %w", err)
	}
	if subject.Identity == nil || !subject.Identity.Capabilities().Has(c) {
		detail := fmt.Sprintf("Permission required: %s", c)
		if subject.Identity != nil {
			detail = subject.Identity.denial(c)
		}
		return Subject{}, httpx.Errorf(httpx.ErrForbidden, detail)
	}
	return subject, nil
}
