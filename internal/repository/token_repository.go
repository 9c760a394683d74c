package repository

import (
    "context"
    "database/sql"
    "time"
)

// TokenRepo provides data access to the refresh_tokens table.  Only the
// SHA-256 hash of a refresh token is ever stored.
type TokenRepo struct {
    db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh persists a refresh token hash with its expiry for a user.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
        userID, tokenHash, expiresAt)
    return err
}

// LookupRefresh resolves a token hash to its owning user id.  Expired and
// revoked tokens are treated as absent.
func (r *TokenRepo) LookupRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    var userID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT user_id FROM refresh_tokens
         WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()`,
        tokenHash).Scan(&userID)
    if err == sql.ErrNoRows {
        return 0, ErrTokenNotFound
    }
    if err != nil {
        return 0, err
    }
    return userID, nil
}

// RevokeRefresh marks a token revoked.  Revoking an unknown or already
// revoked token returns ErrTokenNotFound.
func (r *TokenRepo) RevokeRefresh(ctx context.Context, tokenHash string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL`,
        tokenHash)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrTokenNotFound
    }
    return nil
}
