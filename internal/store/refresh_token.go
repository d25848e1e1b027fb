package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RefreshToken is a session's long-lived credential. Only the sha256 of the
// opaque value is stored. Rotation revokes the old row and links it to its
// successor through ReplacedBy, so a replayed token can be told apart from an
// unknown one.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

// Expired reports whether the token can no longer be exchanged at now.
func (rt *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(rt.ExpiresAt)
}

// Rotated reports whether the token was spent on a successor, as opposed to
// revoked wholesale.
func (rt *RefreshToken) Rotated() bool {
	return rt.Revoked && rt.ReplacedBy != nil
}

const refreshTokenColumns = `id, user_id, token_hash, expires_at, revoked, replaced_by, created_at`

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRefreshToken(ctx context.Context, db execer, id, userID, tokenHash string, expiresAt time.Time) error {
	_, err := db.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)`,
		id, userID, tokenHash, expiresAt,
	)
	return translate(err)
}

func (s *Store) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	id := uuid.New().String()
	if err := insertRefreshToken(ctx, s.pool, id, userID, tokenHash, expiresAt); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var rt RefreshToken
	err := s.pool.QueryRow(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked, &rt.ReplacedBy, &rt.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

// RotateRefreshToken spends oldID on a new token in one transaction. It
// returns ErrNotFound when oldID is unknown or already spent, so of two
// concurrent refreshes with the same token only one succeeds.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := affected(tx.Exec(ctx,
			`UPDATE refresh_tokens SET revoked = true, replaced_by = $1 WHERE id = $2 AND NOT revoked`,
			newID, oldID,
		))
		if err != nil {
			return err
		}
		return insertRefreshToken(ctx, tx, newID, userID, newHash, newExpiry)
	})
}

// RevokeAllRefreshTokens ends every session of userID. Used on logout, on
// account deletion and when a spent token is replayed.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND NOT revoked`,
		userID,
	)
	return translate(err)
}
