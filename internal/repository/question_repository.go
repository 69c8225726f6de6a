package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patshala/patshala-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves the ordered question set for an exam.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, prompt_text, tag, options, correct_option, explanation, image_url, order_num
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY order_num ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.PromptText, &q.Tag, &q.Options,
			&q.CorrectOption, &q.Explanation, &q.ImageURL, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListCompositeByExam retrieves the composite review questions for an exam.
func (r *QuestionRepository) ListCompositeByExam(ctx context.Context, examID uuid.UUID) ([]model.CompositeQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, stem_html, tag, sub_questions
		 FROM composite_questions
		 WHERE exam_id = $1
		 ORDER BY created_at ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.CompositeQuestion
	for rows.Next() {
		var cq model.CompositeQuestion
		if err := rows.Scan(&cq.ID, &cq.ExamID, &cq.StemHTML, &cq.Tag, &cq.SubQuestions); err != nil {
			return nil, err
		}
		questions = append(questions, cq)
	}
	return questions, rows.Err()
}

// Create inserts a question. Used by the seeder.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, prompt_text, tag, options, correct_option, explanation, image_url, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.ExamID, q.PromptText, q.Tag, q.Options, q.CorrectOption, q.Explanation, q.ImageURL, q.OrderNum,
	).Scan(&q.ID)
}
