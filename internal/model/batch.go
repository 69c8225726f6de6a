package model

import (
	"time"

	"github.com/google/uuid"
)

// Batch is a course/cohort that orders, tokens and exams are scoped to.
type Batch struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PriceBDT      int       `json:"price_bdt"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
}
