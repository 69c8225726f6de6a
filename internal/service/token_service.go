package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/rs/zerolog"
)

// Redemption errors surfaced to the caller.
var (
	ErrInvalidToken = errors.New("token not found or already used")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenService validates and consumes enrollment tokens that were
// distributed manually (outside the order-approval flow).
type TokenService struct {
	tokens      TokenStore
	enrollments EnrollmentStore
	log         zerolog.Logger
}

// NewTokenService creates a new TokenService.
func NewTokenService(tokens TokenStore, enrollments EnrollmentStore, log zerolog.Logger) *TokenService {
	return &TokenService{
		tokens:      tokens,
		enrollments: enrollments,
		log:         log.With().Str("component", "token_service").Logger(),
	}
}

// Redeem consumes a token for a student. The enrollment write runs before
// the token is marked used: if enrollment fails the token stays
// redeemable (fail open on the scarce resource, not the valuable one).
// A student already enrolled in the token's batch gets a success no-op
// and the token is not consumed.
func (s *TokenService) Redeem(ctx context.Context, tokenString string, studentID uuid.UUID) (*model.RedeemResult, error) {
	token, err := s.tokens.GetUnused(ctx, tokenString)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpiredToken
	}

	changed, err := s.enrollments.EnrollBatch(ctx, studentID, token.BatchID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Already enrolled; do not consume the token.
		return &model.RedeemResult{
			Success: true,
			Message: "already enrolled in this batch",
			BatchID: token.BatchID,
		}, nil
	}

	consumed, err := s.tokens.MarkUsed(ctx, tokenString, studentID, time.Now())
	if err != nil {
		// Enrollment is applied but the token stayed unused; log for
		// manual reconciliation rather than undoing the enrollment.
		s.log.Error().Err(err).
			Str("token", tokenString).
			Stringer("student_id", studentID).
			Msg("enrolled but token consume failed")
		return nil, err
	}
	if !consumed {
		// Lost a redemption race after our lookup. The student is
		// enrolled either way.
		s.log.Warn().Str("token", tokenString).Msg("token consumed concurrently")
	}

	return &model.RedeemResult{
		Success: true,
		Message: "enrolled successfully",
		BatchID: token.BatchID,
	}, nil
}
