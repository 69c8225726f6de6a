package model

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes student accounts from administrator accounts.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents a portal account. Students carry a roll number and the
// list of batch IDs they are enrolled in; the enrolled list is only ever
// mutated by order approval and token redemption.
type User struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Phone           string      `json:"phone"`
	Roll            string      `json:"roll,omitempty"`
	Role            Role        `json:"role"`
	PasswordHash    string      `json:"-"`
	EnrolledBatches []uuid.UUID `json:"enrolled_batches"`
	CreatedAt       time.Time   `json:"created_at"`
}

// RegisterRequest is the payload for student signup.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Phone    string `json:"phone" binding:"required,min=11,max=14"`
	Roll     string `json:"roll" binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for student and admin authentication.
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required,min=11,max=14"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
