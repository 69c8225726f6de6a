package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patshala/patshala-backend/internal/model"
)

// OrderRepository handles order data access.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, student_id, batch_id, amount_bdt, payment_method, payment_number,
	trx_id, status, assigned_token, admin_comment, expires_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	o := &model.Order{}
	var assignedToken, adminComment *string
	err := row.Scan(&o.ID, &o.StudentID, &o.BatchID, &o.AmountBDT, &o.PaymentMethod,
		&o.PaymentNumber, &o.TrxID, &o.Status, &assignedToken, &adminComment,
		&o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if assignedToken != nil {
		o.AssignedToken = *assignedToken
	}
	if adminComment != nil {
		o.AdminComment = *adminComment
	}
	return o, nil
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// Create inserts a new pending order.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO orders (student_id, batch_id, amount_bdt, payment_method, payment_number, trx_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		o.StudentID, o.BatchID, o.AmountBDT, o.PaymentMethod, o.PaymentNumber, o.TrxID, model.OrderStatusPending,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// SetApproved records an approval: status, assigned token, comment, expiry.
// Re-approval overwrites the previous token and expiry.
func (r *OrderRepository) SetApproved(ctx context.Context, id uuid.UUID, token, comment string, expiresAt *time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET status = $1, assigned_token = $2, admin_comment = $3, expires_at = $4, updated_at = NOW()
		 WHERE id = $5`,
		model.OrderStatusApproved, token, comment, expiresAt, id)
	return err
}

// SetRejected records a rejection with an optional comment.
func (r *OrderRepository) SetRejected(ctx context.Context, id uuid.UUID, comment string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET status = $1, admin_comment = $2, updated_at = NOW()
		 WHERE id = $3`,
		model.OrderStatusRejected, comment, id)
	return err
}

// ListByStudent retrieves a student's orders, newest first.
func (r *OrderRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ListPaginated retrieves orders with optional status and batch filters.
func (r *OrderRepository) ListPaginated(ctx context.Context, status *model.OrderStatus, batchID *uuid.UUID, limit, offset int) ([]model.Order, int, error) {
	where := ""
	var args []any
	if status != nil {
		args = append(args, *status)
		where = " WHERE status = $1"
	}
	if batchID != nil {
		args = append(args, *batchID)
		if where == "" {
			where = " WHERE batch_id = $" + strconv.Itoa(len(args))
		} else {
			where += " AND batch_id = $" + strconv.Itoa(len(args))
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}
