package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrOrderNotFound is returned when the referenced order does not exist.
var ErrOrderNotFound = errors.New("order not found")

const (
	tokenSuffixLength   = 6
	tokenCreateAttempts = 3
	tokenAlphabet       = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// OrderService orchestrates the order lifecycle: creation by students and
// the approval workflow run by administrators. Approval is a strictly
// ordered multi-step sequence with no rollback: a later step's failure is
// reported with the step name and earlier effects remain applied, leaving
// reconciliation to the operator.
type OrderService struct {
	orders      OrderStore
	tokens      TokenStore
	enrollments EnrollmentStore
	tokenPrefix string
	log         zerolog.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders OrderStore, tokens TokenStore, enrollments EnrollmentStore, tokenPrefix string, log zerolog.Logger) *OrderService {
	return &OrderService{
		orders:      orders,
		tokens:      tokens,
		enrollments: enrollments,
		tokenPrefix: tokenPrefix,
		log:         log.With().Str("component", "order_service").Logger(),
	}
}

// Create records a student's payment claim with status pending.
func (s *OrderService) Create(ctx context.Context, studentID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error) {
	order := &model.Order{
		StudentID:     studentID,
		BatchID:       req.BatchID,
		AmountBDT:     req.AmountBDT,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		PaymentNumber: req.PaymentNumber,
		TrxID:         req.TrxID,
		Status:        model.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Approve transitions an order to approved, issues a pre-used enrollment
// token bound to the order's student, and appends the batch to the
// student's enrolled list. Re-approving an already-approved order is an
// explicit reissue: the token and expiry are refreshed.
func (s *OrderService) Approve(ctx context.Context, orderID, adminID uuid.UUID, comment string, expiresAt *time.Time) *model.OrderActionResult {
	// Step 1: fetch the order.
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.OrderActionResult{Success: false, Message: "order not found", FailedStep: "fetch"}
		}
		return &model.OrderActionResult{Success: false, Message: "failed to load order", FailedStep: "fetch"}
	}

	// Steps 2–3: generate a token and insert it pre-used for the student.
	// The token string is random; the unique index is the collision
	// backstop, so regenerate and retry on conflict.
	now := time.Now()
	token := &model.EnrollmentToken{
		BatchID:     order.BatchID,
		CreatedBy:   adminID,
		IsUsed:      true,
		UsedBy:      &order.StudentID,
		UsedAt:      &now,
		MaxUses:     1,
		CurrentUses: 1,
		ExpiresAt:   expiresAt,
	}
	var created bool
	for attempt := 0; attempt < tokenCreateAttempts; attempt++ {
		token.Token = s.tokenPrefix + randomTokenSuffix(tokenSuffixLength)
		err = s.tokens.Create(ctx, token)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, repository.ErrDuplicateToken) {
			break
		}
		s.log.Warn().Str("token", token.Token).Msg("token collision, regenerating")
	}
	if !created {
		s.log.Error().Err(err).Stringer("order_id", orderID).Msg("token issuance failed")
		return &model.OrderActionResult{Success: false, Message: "failed to issue token", FailedStep: "issue_token"}
	}

	// Step 4: mark the order approved with the fresh token.
	if err := s.orders.SetApproved(ctx, orderID, token.Token, comment, expiresAt); err != nil {
		s.log.Error().Err(err).Stringer("order_id", orderID).Msg("order update failed after token issuance")
		return &model.OrderActionResult{
			Success:    false,
			Message:    "token issued but order update failed; reconcile manually",
			Token:      token.Token,
			FailedStep: "update_order",
		}
	}

	// Step 5: enroll the student if not already enrolled (idempotent).
	if _, err := s.enrollments.EnrollBatch(ctx, order.StudentID, order.BatchID); err != nil {
		s.log.Error().Err(err).
			Stringer("order_id", orderID).
			Stringer("student_id", order.StudentID).
			Msg("enrollment failed after approval")
		return &model.OrderActionResult{
			Success:    false,
			Message:    "order approved but enrollment failed; reconcile manually",
			Token:      token.Token,
			FailedStep: "enroll",
		}
	}

	return &model.OrderActionResult{
		Success: true,
		Message: "order approved and student enrolled",
		Token:   token.Token,
	}
}

// Reject transitions an order to rejected with an optional comment.
// No token or enrollment side effects.
func (s *OrderService) Reject(ctx context.Context, orderID uuid.UUID, comment string) *model.OrderActionResult {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.OrderActionResult{Success: false, Message: "order not found", FailedStep: "fetch"}
		}
		return &model.OrderActionResult{Success: false, Message: "failed to load order", FailedStep: "fetch"}
	}

	if err := s.orders.SetRejected(ctx, orderID, comment); err != nil {
		s.log.Error().Err(err).Stringer("order_id", orderID).Msg("order rejection failed")
		return &model.OrderActionResult{Success: false, Message: "failed to reject order", FailedStep: "update_order"}
	}

	return &model.OrderActionResult{Success: true, Message: "order rejected"}
}

// Get retrieves an order by ID.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListByStudent retrieves a student's own orders.
func (s *OrderService) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Order, error) {
	return s.orders.ListByStudent(ctx, studentID)
}

// List retrieves orders for the admin panel with optional filters.
func (s *OrderService) List(ctx context.Context, status *model.OrderStatus, batchID *uuid.UUID, page, perPage int) ([]model.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.orders.ListPaginated(ctx, status, batchID, perPage, (page-1)*perPage)
}

// randomTokenSuffix returns n characters drawn from the token alphabet
// with crypto/rand. The alphabet drops easily confused glyphs (0/O, 1/I)
// since tokens are relayed over messaging apps.
func randomTokenSuffix(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure is unrecoverable for token issuance
			panic(fmt.Sprintf("crypto/rand: %v", err))
		}
		buf[i] = tokenAlphabet[idx.Int64()]
	}
	return string(buf)
}
