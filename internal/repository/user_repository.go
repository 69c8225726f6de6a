package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patshala/patshala-backend/internal/model"
)

var ErrDuplicatePhone = errors.New("user with this phone already exists")

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, phone, roll, role, password_hash, enrolled_batches, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Phone, &u.Roll, &u.Role, &u.PasswordHash, &u.EnrolledBatches, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByPhone retrieves a user by their unique phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, phone, roll, role, password_hash, enrolled_batches, created_at
		 FROM users WHERE phone = $1`, phone,
	).Scan(&u.ID, &u.Name, &u.Phone, &u.Roll, &u.Role, &u.PasswordHash, &u.EnrolledBatches, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, phone, roll, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, enrolled_batches, created_at`,
		u.Name, u.Phone, u.Roll, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.EnrolledBatches, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePhone
		}
		return err
	}
	return nil
}

// GetEnrolledBatches reads the current enrolled-batch list for a user.
func (r *UserRepository) GetEnrolledBatches(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var batches []uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT enrolled_batches FROM users WHERE id = $1`, userID,
	).Scan(&batches)
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// EnrollBatch appends a batch to the user's enrolled list if not already
// present (read-then-append, idempotent). Returns true when the list
// changed. The presence-check-then-write is not atomic; concurrent
// enrollments of the same batch can race, and the array_append guard in
// SQL narrows but does not close that window.
func (r *UserRepository) EnrollBatch(ctx context.Context, userID, batchID uuid.UUID) (bool, error) {
	current, err := r.GetEnrolledBatches(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, b := range current {
		if b == batchID {
			return false, nil
		}
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET enrolled_batches = array_append(enrolled_batches, $1)
		 WHERE id = $2 AND NOT ($1 = ANY(enrolled_batches))`,
		batchID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
