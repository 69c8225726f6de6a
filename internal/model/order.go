package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus enumerates the payment-claim lifecycle.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
)

// PaymentMethod enumerates the supported manual mobile-payment channels.
type PaymentMethod string

const (
	PaymentMethodBkash  PaymentMethod = "bkash"
	PaymentMethodNagad  PaymentMethod = "nagad"
	PaymentMethodRocket PaymentMethod = "rocket"
)

// Order is a student's payment claim awaiting admin verification.
// Status is mutated only by an administrator action; orders are never
// deleted by the normal flow.
type Order struct {
	ID            uuid.UUID     `json:"id"`
	StudentID     uuid.UUID     `json:"student_id"`
	BatchID       uuid.UUID     `json:"batch_id"`
	AmountBDT     int           `json:"amount_bdt"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentNumber string        `json:"payment_number"`
	TrxID         string        `json:"trx_id"`
	Status        OrderStatus   `json:"status"`
	AssignedToken string        `json:"assigned_token,omitempty"`
	AdminComment  string        `json:"admin_comment,omitempty"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateOrderRequest is the payload for a student submitting a payment claim.
type CreateOrderRequest struct {
	BatchID       uuid.UUID `json:"batch_id" binding:"required"`
	AmountBDT     int       `json:"amount_bdt" binding:"required,min=1"`
	PaymentMethod string    `json:"payment_method" binding:"required,oneof=bkash nagad rocket"`
	PaymentNumber string    `json:"payment_number" binding:"required,min=11,max=14"`
	TrxID         string    `json:"trx_id" binding:"required,min=6,max=30"`
}

// ApproveOrderRequest is the admin payload for approving an order.
type ApproveOrderRequest struct {
	Comment   string     `json:"comment" binding:"omitempty,max=500"`
	ExpiresAt *time.Time `json:"expires_at" binding:"omitempty"`
}

// RejectOrderRequest is the admin payload for rejecting an order.
type RejectOrderRequest struct {
	Comment string `json:"comment" binding:"omitempty,max=500"`
}

// OrderActionResult is the structured outcome of an admin order action.
// Workflow steps are not rolled back on later-step failure; FailedStep
// names the step that did not apply so an operator can reconcile manually.
type OrderActionResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Token      string `json:"token,omitempty"`
	FailedStep string `json:"failed_step,omitempty"`
}
