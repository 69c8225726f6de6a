package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/model"
)

// Narrow store interfaces consumed by the workflow services. The pgx
// repositories satisfy them; tests substitute in-memory fakes.

// OrderStore is the order persistence surface used by OrderService.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Create(ctx context.Context, o *model.Order) error
	SetApproved(ctx context.Context, id uuid.UUID, token, comment string, expiresAt *time.Time) error
	SetRejected(ctx context.Context, id uuid.UUID, comment string) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Order, error)
	ListPaginated(ctx context.Context, status *model.OrderStatus, batchID *uuid.UUID, limit, offset int) ([]model.Order, int, error)
}

// TokenStore is the enrollment-token persistence surface.
type TokenStore interface {
	Create(ctx context.Context, t *model.EnrollmentToken) error
	GetUnused(ctx context.Context, token string) (*model.EnrollmentToken, error)
	MarkUsed(ctx context.Context, token string, usedBy uuid.UUID, usedAt time.Time) (bool, error)
}

// EnrollmentStore mutates a user's enrolled-batch list.
type EnrollmentStore interface {
	EnrollBatch(ctx context.Context, userID, batchID uuid.UUID) (bool, error)
}

// PaperSource loads an exam and its full question set for a session.
type PaperSource interface {
	LoadExam(ctx context.Context, examID uuid.UUID) (*model.Exam, []model.Question, error)
}

// ResultQueue hands a submitted result to the background persistence
// worker.
type ResultQueue interface {
	Enqueue(ctx context.Context, res *model.ExamResult) error
}

// SessionKV tracks the active login JTI per user. Entries expire with
// the JWT they belong to.
type SessionKV interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}
