package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultExamDurationSeconds is the countdown used when an exam does not
// declare its own duration.
const DefaultExamDurationSeconds = 600

// DefaultNegativeMark is the score deducted per wrong answer.
const DefaultNegativeMark = 0.25

// Exam represents a timed multiple-choice exam scoped to a batch.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	BatchID         uuid.UUID `json:"batch_id"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"duration_seconds"`
	NegativeMark    float64   `json:"negative_mark"`
	IsPublished     bool      `json:"is_published"`
	CreatedAt       time.Time `json:"created_at"`
}

// DurationOrDefault returns the exam's countdown in seconds, falling back
// to the fixed default when unset.
func (e *Exam) DurationOrDefault() int {
	if e.DurationSeconds > 0 {
		return e.DurationSeconds
	}
	return DefaultExamDurationSeconds
}

// ExamPaper is the question set sent to a student taking the exam.
// Correct answers and explanations are stripped.
type ExamPaper struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	DurationSeconds int                  `json:"duration_seconds"`
	NegativeMark    float64              `json:"negative_mark"`
	Questions       []QuestionForStudent `json:"questions"`
}

// SolveSheet is the post-submission review: full questions with correct
// answers and explanations, plus unscored composite review questions.
type SolveSheet struct {
	ExamID             uuid.UUID           `json:"exam_id"`
	Title              string              `json:"title"`
	Questions          []Question          `json:"questions"`
	CompositeQuestions []CompositeQuestion `json:"composite_questions,omitempty"`
}

// StartExamRequest is the payload for opening an exam session.
type StartExamRequest struct {
	Practice bool `json:"practice"`
}

// SelectAnswerRequest is the payload for answering a question.
type SelectAnswerRequest struct {
	QuestionID  uuid.UUID `json:"question_id" binding:"required"`
	OptionIndex *int      `json:"option_index" binding:"required,min=0,max=4"`
}
