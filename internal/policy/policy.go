// Package policy is the single place where allow/deny decisions are made.
// Handlers resolve the caller's identity from the access token, load the
// target resource, and then ask this package whether the operation may
// proceed. Both checks are pure predicates over already-loaded data: they
// never touch the database, which keeps them unit-testable in isolation
// from HTTP wiring.
//
// Ordering matters: existence is checked by the caller before any policy
// check runs, so a missing resource reports not-found rather than
// forbidden. That ordering leaks existence information to unauthorized
// callers and is kept on purpose.
package policy

import (
	"errors"

	"github.com/iliyamo/photo-share/internal/model"
)

// ErrForbidden is returned when the identity is valid but lacks the role
// or ownership required for the operation. Handlers translate it into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// Identity is the resolved caller: the authenticated user's id and role
// as carried in the access token claims.
type Identity struct {
	UserID uint64
	Role   string
}

// RequireRole allows the identity when its role is in the permitted set.
func RequireRole(id Identity, roles ...string) error {
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// RequireOwnerOrRole allows the identity when it owns the resource or
// holds one of the elevated roles. ownerID is the owner reference of a
// resource that the caller has already confirmed to exist.
func RequireOwnerOrRole(id Identity, ownerID uint64, elevated ...string) error {
	if id.UserID == ownerID {
		return nil
	}
	return RequireRole(id, elevated...)
}

// CanManagePhoto reports whether the identity may update or delete a photo
// owned by ownerID. Photos are manageable by their owner or an ADMIN.
func CanManagePhoto(id Identity, ownerID uint64) error {
	return RequireOwnerOrRole(id, ownerID, model.RoleAdmin)
}

// CanEditComment reports whether the identity may edit a comment written
// by authorID. Only the author may change comment content.
func CanEditComment(id Identity, authorID uint64) error {
	if id.UserID == authorID {
		return nil
	}
	return ErrForbidden
}

// CanDeleteComment reports whether the identity may delete a comment
// written by authorID. The author, an ADMIN or a MODERATOR may delete.
func CanDeleteComment(id Identity, authorID uint64) error {
	return RequireOwnerOrRole(id, authorID, model.RoleAdmin, model.RoleModerator)
}
