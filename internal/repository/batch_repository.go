package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patshala/patshala-backend/internal/model"
)

// BatchRepository handles batch data access.
type BatchRepository struct {
	pool *pgxpool.Pool
}

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool}
}

// GetByID retrieves a batch by ID.
func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	b := &model.Batch{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, price_bdt, cover_image_url, is_published, created_at
		 FROM batches WHERE id = $1`, id,
	).Scan(&b.ID, &b.Title, &b.Description, &b.PriceBDT, &b.CoverImageURL, &b.IsPublished, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListPublished retrieves all published batches for the storefront.
func (r *BatchRepository) ListPublished(ctx context.Context) ([]model.Batch, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, price_bdt, cover_image_url, is_published, created_at
		 FROM batches
		 WHERE is_published = true
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		var b model.Batch
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.PriceBDT, &b.CoverImageURL, &b.IsPublished, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
