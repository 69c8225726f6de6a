package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patshala/patshala-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, batch_id, title, duration_seconds, negative_mark, is_published, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.BatchID, &e.Title, &e.DurationSeconds, &e.NegativeMark, &e.IsPublished, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByBatch retrieves published exams for a batch.
func (r *ExamRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, batch_id, title, duration_seconds, negative_mark, is_published, created_at
		 FROM exams
		 WHERE batch_id = $1 AND is_published = true
		 ORDER BY created_at DESC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Title, &e.DurationSeconds, &e.NegativeMark, &e.IsPublished, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
