package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/repository"
)

// ErrBatchNotFound is returned when a batch does not exist or is unpublished.
var ErrBatchNotFound = errors.New("batch not found")

// BatchService exposes the public storefront catalog.
type BatchService struct {
	repo *repository.BatchRepository
}

// NewBatchService creates a new BatchService.
func NewBatchService(repo *repository.BatchRepository) *BatchService {
	return &BatchService{repo: repo}
}

// ListPublished returns all batches visible on the storefront.
func (s *BatchService) ListPublished(ctx context.Context) ([]model.Batch, error) {
	return s.repo.ListPublished(ctx)
}

// Get returns a single published batch.
func (s *BatchService) Get(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	batch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	if !batch.IsPublished {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}
