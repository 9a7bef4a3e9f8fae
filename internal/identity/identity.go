// Package identity carries the caller resolved by the auth middleware.
package identity

import (
	"context"

	"github.com/gdg-garage/community-events/internal/failure"
	"github.com/gdg-garage/community-events/internal/models"
)

type Identity struct {
	Authenticated bool
	UserID        uint
	Role          models.Role
}

func Anonymous() Identity {
	return Identity{}
}

func User(id uint, role models.Role) Identity {
	return Identity{Authenticated: true, UserID: id, Role: role}
}

func (i Identity) IsAdmin() bool {
	return i.Authenticated && i.Role == models.RoleAdmin
}

// Require fails with UNAUTHORIZED for anonymous callers.
func (i Identity) Require() error {
	if !i.Authenticated {
		return failure.ErrUnauthorized
	}
	return nil
}

// RequireAdmin fails with UNAUTHORIZED for anonymous callers and FORBIDDEN
// for everyone who is not an admin.
func (i Identity) RequireAdmin() error {
	if err := i.Require(); err != nil {
		return err
	}
	if i.Role != models.RoleAdmin {
		return failure.ErrForbidden
	}
	return nil
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the anonymous identity when none was attached.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}
