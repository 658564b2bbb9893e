package model

import "time"

// Role names form a closed set. They are stored verbatim in the
// `users.role` column and embedded in access-token claims, so the
// string values here are the single source of truth.
const (
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleUser      = "USER"
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// User mirrors the `users` table. The json tags are omitted because these
// structs stay inside the repository layer; handlers define their own
// response types.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Username         – unique public handle.
//  Email            – unique email address.
//  PasswordHash     – bcrypt hashed password; plaintext is never stored.
//  Role             – one of ADMIN, MODERATOR, USER.
//  IsActive         – whether the account may log in.
//  Confirmed        – whether the email address was confirmed.
//  RefreshTokenHash – SHA-256 hex digest of the current refresh token,
//                     nil when the user has no live session. At most one
//                     refresh token is valid per user at any time.
//  RefreshExpiresAt – expiry of the stored refresh token (nil with no token).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64     // users.id
	Username         string     // users.username
	Email            string     // users.email
	PasswordHash     string     // users.password_hash
	Role             string     // users.role
	IsActive         bool       // users.is_active
	Confirmed        bool       // users.confirmed
	RefreshTokenHash *string    // users.refresh_token_hash (nullable)
	RefreshExpiresAt *time.Time // users.refresh_expires_at (nullable)
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}
