package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/rs/zerolog"
)

func seedToken(tokens *fakeTokenStore, token string, batchID uuid.UUID, expiresAt *time.Time) {
	tokens.tokens[token] = &model.EnrollmentToken{
		Token:     token,
		BatchID:   batchID,
		CreatedBy: uuid.New(),
		MaxUses:   1,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func TestRedeemEnrollsAndConsumes(t *testing.T) {
	tokens := newFakeTokenStore()
	enrollments := newFakeEnrollmentStore()
	svc := service.NewTokenService(tokens, enrollments, zerolog.Nop())

	studentID, batchID := uuid.New(), uuid.New()
	seedToken(tokens, "PAT-ABC234", batchID, nil)

	result, err := svc.Redeem(context.Background(), "PAT-ABC234", studentID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !result.Success || result.BatchID != batchID {
		t.Errorf("result = %+v", result)
	}
	if !enrollments.isEnrolled(studentID, batchID) {
		t.Error("student not enrolled")
	}

	stored := tokens.tokens["PAT-ABC234"]
	if !stored.IsUsed || stored.UsedBy == nil || *stored.UsedBy != studentID {
		t.Errorf("token not consumed: %+v", stored)
	}
}

func TestRedeemConsumedTokenFails(t *testing.T) {
	tokens := newFakeTokenStore()
	enrollments := newFakeEnrollmentStore()
	svc := service.NewTokenService(tokens, enrollments, zerolog.Nop())

	batchID := uuid.New()
	seedToken(tokens, "PAT-ABC234", batchID, nil)

	if _, err := svc.Redeem(context.Background(), "PAT-ABC234", uuid.New()); err != nil {
		t.Fatalf("first redeem: %v", err)
	}

	// A second student cannot reuse it.
	other := uuid.New()
	_, err := svc.Redeem(context.Background(), "PAT-ABC234", other)
	if !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
	if enrollments.isEnrolled(other, batchID) {
		t.Error("second student must not be enrolled")
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	svc := service.NewTokenService(newFakeTokenStore(), newFakeEnrollmentStore(), zerolog.Nop())

	_, err := svc.Redeem(context.Background(), "PAT-NOSUCH", uuid.New())
	if !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	tokens := newFakeTokenStore()
	enrollments := newFakeEnrollmentStore()
	svc := service.NewTokenService(tokens, enrollments, zerolog.Nop())

	studentID, batchID := uuid.New(), uuid.New()
	past := time.Now().Add(-time.Hour)
	seedToken(tokens, "PAT-OLD234", batchID, &past)

	_, err := svc.Redeem(context.Background(), "PAT-OLD234", studentID)
	if !errors.Is(err, service.ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
	if enrollments.isEnrolled(studentID, batchID) {
		t.Error("expired token must not enroll")
	}
	if tokens.tokens["PAT-OLD234"].IsUsed {
		t.Error("expired token must not be consumed")
	}
}

func TestRedeemByEnrolledStudentIsNoOp(t *testing.T) {
	tokens := newFakeTokenStore()
	enrollments := newFakeEnrollmentStore()
	svc := service.NewTokenService(tokens, enrollments, zerolog.Nop())

	studentID, batchID := uuid.New(), uuid.New()
	enrollments.enrolled[studentID] = []uuid.UUID{batchID}
	seedToken(tokens, "PAT-DUP234", batchID, nil)

	result, err := svc.Redeem(context.Background(), "PAT-DUP234", studentID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !result.Success {
		t.Errorf("already-enrolled redemption should report success: %+v", result)
	}
	// The scarce resource survives for another student.
	if tokens.tokens["PAT-DUP234"].IsUsed {
		t.Error("token must not be consumed for an already-enrolled student")
	}
}

func TestRedeemEnrollmentFailureKeepsToken(t *testing.T) {
	tokens := newFakeTokenStore()
	enrollments := newFakeEnrollmentStore()
	enrollments.err = context.DeadlineExceeded
	svc := service.NewTokenService(tokens, enrollments, zerolog.Nop())

	seedToken(tokens, "PAT-ERR234", uuid.New(), nil)

	if _, err := svc.Redeem(context.Background(), "PAT-ERR234", uuid.New()); err == nil {
		t.Fatal("expected error when enrollment fails")
	}
	// Enroll-before-consume: the token stays redeemable.
	if tokens.tokens["PAT-ERR234"].IsUsed {
		t.Error("token must stay unused when enrollment fails")
	}
}
