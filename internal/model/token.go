package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentToken is a single-use code that grants access to a batch.
// Tokens created by order approval are born pre-used, bound to the
// approved order's student; manually distributed tokens start unused.
type EnrollmentToken struct {
	Token       string     `json:"token"`
	BatchID     uuid.UUID  `json:"batch_id"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	IsUsed      bool       `json:"is_used"`
	UsedBy      *uuid.UUID `json:"used_by,omitempty"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	MaxUses     int        `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RedeemTokenRequest is the payload for a student redeeming a token.
type RedeemTokenRequest struct {
	Token string `json:"token" binding:"required,min=6,max=40"`
}

// RedeemResult is the structured outcome of a redemption attempt.
type RedeemResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	BatchID uuid.UUID `json:"batch_id,omitempty"`
}
