package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
)

// SessionSnapshot is the durable in-progress state written to storage on a
// fixed interval so a session survives a crash or reload. Answers map
// question IDs to chosen option indexes.
type SessionSnapshot struct {
	ExamID           uuid.UUID          `json:"exam_id"`
	Answers          map[uuid.UUID]int  `json:"answers"`
	RemainingSeconds int                `json:"remaining_seconds"`
	Practice         bool               `json:"practice"`
	LockedQuestions  map[uuid.UUID]bool `json:"locked_questions,omitempty"`
}

// SessionState is the view of a live session returned to the student on
// page reload.
type SessionState struct {
	ExamID           uuid.UUID         `json:"exam_id"`
	Status           SessionStatus     `json:"status"`
	Answers          map[uuid.UUID]int `json:"answers"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Practice         bool              `json:"practice"`
}

// AnswerFeedback is returned from answer selection. Correct is populated
// only in practice mode, where feedback is immediate and the question
// locks after the first answer.
type AnswerFeedback struct {
	Accepted bool  `json:"accepted"`
	Locked   bool  `json:"locked"`
	Correct  *bool `json:"correct,omitempty"`
}

// ExamResult is the immutable outcome of one submission.
// Score formula: +1 per correct, minus the exam's negative mark per wrong
// answer, 0 for unanswered.
type ExamResult struct {
	ExamID       uuid.UUID         `json:"exam_id"`
	ExamTitle    string            `json:"exam_title"`
	StudentID    uuid.UUID         `json:"student_id"`
	Score        float64           `json:"score"`
	CorrectCount int               `json:"correct_count"`
	WrongCount   int               `json:"wrong_count"`
	Total        int               `json:"total"`
	Answers      map[uuid.UUID]int `json:"answers"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}
