package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists and validates admin refresh tokens.  Only the
// SHA-256 hash of a token is stored.
type TokenRepo struct{ db *sql.DB }

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh inserts a refresh token hash row for an admin.
func (r *TokenRepo) StoreRefresh(ctx context.Context, adminID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (admin_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		adminID, tokenHash, exp.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// ValidateRefresh returns the owning admin id if a non-revoked,
// non-expired token with this hash exists; sql.ErrNoRows otherwise.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		adminID   uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT admin_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`,
		tokenHash).Scan(&adminID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return adminID, nil
}

// RevokeByHash marks a single token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL`,
		tokenHash)
	return err
}

// RevokeAllForAdmin revokes every active token belonging to an admin,
// logging them out of all sessions.
func (r *TokenRepo) RevokeAllForAdmin(ctx context.Context, adminID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE admin_id = ? AND revoked_at IS NULL`,
		adminID)
	return err
}
