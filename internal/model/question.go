package model

import (
	"github.com/google/uuid"
)

// Question represents a single multiple-choice exam question.
// Immutable once loaded into a session.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	PromptText    string    `json:"prompt_text"`
	Tag           string    `json:"tag,omitempty"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	Explanation   string    `json:"explanation,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	OrderNum      int       `json:"order_num"`
}

// QuestionForStudent is a question without the correct answer or
// explanation, safe to send to a student mid-exam.
type QuestionForStudent struct {
	ID         uuid.UUID `json:"id"`
	PromptText string    `json:"prompt_text"`
	Tag        string    `json:"tag,omitempty"`
	Options    []string  `json:"options"`
	ImageURL   string    `json:"image_url,omitempty"`
	OrderNum   int       `json:"order_num"`
}

// ForStudent strips the gradable fields from a question.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:         q.ID,
		PromptText: q.PromptText,
		Tag:        q.Tag,
		Options:    q.Options,
		ImageURL:   q.ImageURL,
		OrderNum:   q.OrderNum,
	}
}

// SubQuestion is one labeled part of a composite question.
type SubQuestion struct {
	Label       string `json:"label"`
	PromptText  string `json:"prompt_text"`
	ModelAnswer string `json:"model_answer"`
}

// CompositeQuestion is free-response review content shown in the solve
// sheet. Composite questions are never scored.
type CompositeQuestion struct {
	ID           uuid.UUID     `json:"id"`
	ExamID       uuid.UUID     `json:"exam_id"`
	StemHTML     string        `json:"stem_html"`
	Tag          string        `json:"tag,omitempty"`
	SubQuestions []SubQuestion `json:"sub_questions"`
}
