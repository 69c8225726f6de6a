package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patshala/patshala-backend/internal/model"
)

// ErrDuplicateToken signals a collision on the unique token string.
// Callers regenerate and retry.
var ErrDuplicateToken = errors.New("token string already exists")

// TokenRepository handles enrollment token data access.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Create inserts an enrollment token.
func (r *TokenRepository) Create(ctx context.Context, t *model.EnrollmentToken) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO enrollment_tokens
		 (token, batch_id, created_by, is_used, used_by, used_at, max_uses, current_uses, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		t.Token, t.BatchID, t.CreatedBy, t.IsUsed, t.UsedBy, t.UsedAt, t.MaxUses, t.CurrentUses, t.ExpiresAt,
	).Scan(&t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

// GetUnused retrieves a token by exact string match that has not been
// consumed yet.
func (r *TokenRepository) GetUnused(ctx context.Context, token string) (*model.EnrollmentToken, error) {
	t := &model.EnrollmentToken{}
	err := r.pool.QueryRow(ctx,
		`SELECT token, batch_id, created_by, is_used, used_by, used_at, max_uses, current_uses, expires_at, created_at
		 FROM enrollment_tokens
		 WHERE token = $1 AND is_used = false`, token,
	).Scan(&t.Token, &t.BatchID, &t.CreatedBy, &t.IsUsed, &t.UsedBy, &t.UsedAt, &t.MaxUses, &t.CurrentUses, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// MarkUsed consumes a token for a student. The conditional WHERE makes
// the consume a single-row compare-and-set: a concurrent redemption of
// the same token succeeds at most once. Returns false when the token was
// already consumed.
func (r *TokenRepository) MarkUsed(ctx context.Context, token string, usedBy uuid.UUID, usedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE enrollment_tokens
		 SET is_used = true, used_by = $1, used_at = $2, current_uses = current_uses + 1
		 WHERE token = $3 AND is_used = false AND current_uses < max_uses`,
		usedBy, usedAt, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
