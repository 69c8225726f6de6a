package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/repository"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/rs/zerolog"
)

/* ---------------- In-memory fakes for OrderStore, TokenStore and EnrollmentStore ---------------- */

type fakeOrderStore struct {
	orders map[uuid.UUID]*model.Order

	setApprovedErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[uuid.UUID]*model.Order{}}
}

func (s *fakeOrderStore) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeOrderStore) SetApproved(_ context.Context, id uuid.UUID, token, comment string, expiresAt *time.Time) error {
	if s.setApprovedErr != nil {
		return s.setApprovedErr
	}
	o := s.orders[id]
	o.Status = model.OrderStatusApproved
	o.AssignedToken = token
	o.AdminComment = comment
	o.ExpiresAt = expiresAt
	return nil
}

func (s *fakeOrderStore) SetRejected(_ context.Context, id uuid.UUID, comment string) error {
	o := s.orders[id]
	o.Status = model.OrderStatusRejected
	o.AdminComment = comment
	return nil
}

func (s *fakeOrderStore) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range s.orders {
		if o.StudentID == studentID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) ListPaginated(_ context.Context, status *model.OrderStatus, batchID *uuid.UUID, limit, offset int) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range s.orders {
		if status != nil && o.Status != *status {
			continue
		}
		if batchID != nil && o.BatchID != *batchID {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

type fakeTokenStore struct {
	tokens map[string]*model.EnrollmentToken

	// preloaded collisions: token strings that reject the first insert
	failInserts int
	createErr   error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]*model.EnrollmentToken{}}
}

func (s *fakeTokenStore) Create(_ context.Context, t *model.EnrollmentToken) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.failInserts > 0 {
		s.failInserts--
		return repository.ErrDuplicateToken
	}
	if _, exists := s.tokens[t.Token]; exists {
		return repository.ErrDuplicateToken
	}
	t.CreatedAt = time.Now()
	cp := *t
	s.tokens[t.Token] = &cp
	return nil
}

func (s *fakeTokenStore) GetUnused(_ context.Context, token string) (*model.EnrollmentToken, error) {
	t, ok := s.tokens[token]
	if !ok || t.IsUsed {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTokenStore) MarkUsed(_ context.Context, token string, usedBy uuid.UUID, usedAt time.Time) (bool, error) {
	t, ok := s.tokens[token]
	if !ok || t.IsUsed || t.CurrentUses >= t.MaxUses {
		return false, nil
	}
	t.IsUsed = true
	t.UsedBy = &usedBy
	t.UsedAt = &usedAt
	t.CurrentUses++
	return true, nil
}

type fakeEnrollmentStore struct {
	enrolled map[uuid.UUID][]uuid.UUID
	err      error
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{enrolled: map[uuid.UUID][]uuid.UUID{}}
}

func (s *fakeEnrollmentStore) EnrollBatch(_ context.Context, userID, batchID uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, b := range s.enrolled[userID] {
		if b == batchID {
			return false, nil
		}
	}
	s.enrolled[userID] = append(s.enrolled[userID], batchID)
	return true, nil
}

func (s *fakeEnrollmentStore) isEnrolled(userID, batchID uuid.UUID) bool {
	for _, b := range s.enrolled[userID] {
		if b == batchID {
			return true
		}
	}
	return false
}

/* ---------------- Fixtures ---------------- */

type orderFixture struct {
	svc         *service.OrderService
	orders      *fakeOrderStore
	tokens      *fakeTokenStore
	enrollments *fakeEnrollmentStore
}

func newOrderFixture() *orderFixture {
	orders := newFakeOrderStore()
	tokens := newFakeTokenStore()
	enrollments := newFakeEnrollmentStore()
	return &orderFixture{
		svc:         service.NewOrderService(orders, tokens, enrollments, "PAT-", zerolog.Nop()),
		orders:      orders,
		tokens:      tokens,
		enrollments: enrollments,
	}
}

func (f *orderFixture) createPendingOrder(t *testing.T, studentID, batchID uuid.UUID) *model.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), studentID, &model.CreateOrderRequest{
		BatchID:       batchID,
		AmountBDT:     1500,
		PaymentMethod: "bkash",
		PaymentNumber: "01812345678",
		TrxID:         "TRX9XYZ01",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

/* ---------------- Tests ---------------- */

func TestCreateOrderStartsPending(t *testing.T) {
	f := newOrderFixture()
	studentID, batchID := uuid.New(), uuid.New()

	order := f.createPendingOrder(t, studentID, batchID)

	if order.Status != model.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if order.ID == uuid.Nil {
		t.Error("order did not get an ID")
	}
}

func TestApproveIssuesPreUsedTokenAndEnrolls(t *testing.T) {
	f := newOrderFixture()
	studentID, batchID, adminID := uuid.New(), uuid.New(), uuid.New()
	order := f.createPendingOrder(t, studentID, batchID)

	result := f.svc.Approve(context.Background(), order.ID, adminID, "verified", nil)
	if !result.Success {
		t.Fatalf("approve failed: %+v", result)
	}

	// Token format: prefix plus 6 characters from the safe alphabet.
	if !strings.HasPrefix(result.Token, "PAT-") || len(result.Token) != len("PAT-")+6 {
		t.Errorf("token format: %q", result.Token)
	}
	for _, r := range strings.TrimPrefix(result.Token, "PAT-") {
		if strings.ContainsAny(string(r), "01OIoi") {
			t.Errorf("token %q contains a confusable character", result.Token)
		}
	}

	// The token is already consumed and bound to the order's student.
	stored := f.tokens.tokens[result.Token]
	if stored == nil {
		t.Fatal("token not stored")
	}
	if !stored.IsUsed || stored.UsedBy == nil || *stored.UsedBy != studentID {
		t.Errorf("token not pre-used for the student: %+v", stored)
	}
	if stored.CurrentUses != 1 || stored.MaxUses != 1 {
		t.Errorf("uses = %d/%d, want 1/1", stored.CurrentUses, stored.MaxUses)
	}

	// Order and enrollment reflect the approval.
	got, _ := f.svc.Get(context.Background(), order.ID)
	if got.Status != model.OrderStatusApproved || got.AssignedToken != result.Token {
		t.Errorf("order after approval: %+v", got)
	}
	if !f.enrollments.isEnrolled(studentID, batchID) {
		t.Error("student not enrolled")
	}
}

func TestReApprovalIssuesDistinctToken(t *testing.T) {
	f := newOrderFixture()
	studentID, batchID, adminID := uuid.New(), uuid.New(), uuid.New()
	order := f.createPendingOrder(t, studentID, batchID)

	first := f.svc.Approve(context.Background(), order.ID, adminID, "", nil)
	second := f.svc.Approve(context.Background(), order.ID, adminID, "reissue", nil)

	if !first.Success || !second.Success {
		t.Fatalf("approvals failed: %+v / %+v", first, second)
	}
	if first.Token == second.Token {
		t.Errorf("re-approval reused token %q", first.Token)
	}

	// The order carries the latest token; enrollment stayed idempotent.
	got, _ := f.svc.Get(context.Background(), order.ID)
	if got.AssignedToken != second.Token {
		t.Errorf("assigned token = %q, want %q", got.AssignedToken, second.Token)
	}
	if n := len(f.enrollments.enrolled[studentID]); n != 1 {
		t.Errorf("enrolled batches = %d, want 1", n)
	}
}

func TestApproveRetriesOnTokenCollision(t *testing.T) {
	f := newOrderFixture()
	order := f.createPendingOrder(t, uuid.New(), uuid.New())
	f.tokens.failInserts = 2 // two collisions, third attempt must land

	result := f.svc.Approve(context.Background(), order.ID, uuid.New(), "", nil)
	if !result.Success {
		t.Fatalf("approve should survive two collisions: %+v", result)
	}

	f2 := newOrderFixture()
	order2 := f2.createPendingOrder(t, uuid.New(), uuid.New())
	f2.tokens.failInserts = 3 // exhausts every attempt

	result2 := f2.svc.Approve(context.Background(), order2.ID, uuid.New(), "", nil)
	if result2.Success || result2.FailedStep != "issue_token" {
		t.Errorf("expected issue_token failure, got %+v", result2)
	}
}

func TestApproveReportsFailedStepWithoutRollback(t *testing.T) {
	f := newOrderFixture()
	studentID, batchID := uuid.New(), uuid.New()
	order := f.createPendingOrder(t, studentID, batchID)
	f.orders.setApprovedErr = context.DeadlineExceeded

	result := f.svc.Approve(context.Background(), order.ID, uuid.New(), "", nil)
	if result.Success {
		t.Fatal("approve should fail when the order update fails")
	}
	if result.FailedStep != "update_order" {
		t.Errorf("failed step = %q, want update_order", result.FailedStep)
	}
	// The issued token is reported and kept; no rollback.
	if result.Token == "" {
		t.Error("result should carry the issued token for reconciliation")
	}
	if f.tokens.tokens[result.Token] == nil {
		t.Error("issued token must survive the failed step")
	}

	// Enrollment failure after the order update reports its own step.
	f2 := newOrderFixture()
	order2 := f2.createPendingOrder(t, studentID, batchID)
	f2.enrollments.err = context.DeadlineExceeded

	result2 := f2.svc.Approve(context.Background(), order2.ID, uuid.New(), "", nil)
	if result2.Success || result2.FailedStep != "enroll" {
		t.Errorf("expected enroll failure, got %+v", result2)
	}
	got, _ := f2.svc.Get(context.Background(), order2.ID)
	if got.Status != model.OrderStatusApproved {
		t.Errorf("order status = %s, approval must not roll back", got.Status)
	}
}

func TestApproveUnknownOrder(t *testing.T) {
	f := newOrderFixture()

	result := f.svc.Approve(context.Background(), uuid.New(), uuid.New(), "", nil)
	if result.Success || result.FailedStep != "fetch" {
		t.Errorf("expected fetch failure, got %+v", result)
	}
	if len(f.tokens.tokens) != 0 {
		t.Error("no token may be issued for an unknown order")
	}
}

func TestRejectOrder(t *testing.T) {
	f := newOrderFixture()
	studentID, batchID := uuid.New(), uuid.New()
	order := f.createPendingOrder(t, studentID, batchID)

	result := f.svc.Reject(context.Background(), order.ID, "trx not found")
	if !result.Success {
		t.Fatalf("reject failed: %+v", result)
	}

	got, _ := f.svc.Get(context.Background(), order.ID)
	if got.Status != model.OrderStatusRejected || got.AdminComment != "trx not found" {
		t.Errorf("order after reject: %+v", got)
	}
	if len(f.tokens.tokens) != 0 {
		t.Error("reject must not issue tokens")
	}
	if f.enrollments.isEnrolled(studentID, batchID) {
		t.Error("reject must not enroll")
	}
}
