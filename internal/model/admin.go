package model

import "time"

// Admin is a dashboard account.  Role is not stored: the super admin is
// identified by the configured bootstrap email, every other account is
// a regular admin.
type Admin struct {
	ID           uint64    `json:"id"`         // primary key
	Name         string    `json:"name"`       // display name
	Email        string    `json:"email"`      // login email, unique
	PasswordHash string    `json:"-"`          // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"created_at"` // account creation time
}

// Admin role values carried in the JWT "role" claim.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
)

// RefreshToken is a stored refresh-token row.  Only the SHA-256 hash of
// the raw token is kept.
type RefreshToken struct {
	ID        uint64    // primary key
	AdminID   uint64    // owning admin account
	TokenHash string    // sha256 hex of the raw token
	ExpiresAt time.Time // expiry, UTC
	RevokedAt time.Time // zero when still active
}
