package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patshala/patshala-backend/internal/model"
)

// ResultRepository persists submitted exam results. One row per
// (exam, student); resubmission overwrites.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Upsert writes a result row, replacing any previous submission for the
// same exam-student pair.
func (r *ResultRepository) Upsert(ctx context.Context, res *model.ExamResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, correct_count, wrong_count, total, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET score = EXCLUDED.score,
		     correct_count = EXCLUDED.correct_count,
		     wrong_count = EXCLUDED.wrong_count,
		     total = EXCLUDED.total,
		     submitted_at = EXCLUDED.submitted_at`,
		res.ExamID, res.StudentID, res.Score, res.CorrectCount, res.WrongCount, res.Total, res.SubmittedAt)
	return err
}

// BulkUpsert writes a batch of result rows with UNNEST in one round trip.
func (r *ResultRepository) BulkUpsert(ctx context.Context, results []*model.ExamResult) error {
	n := len(results)
	examIDs := make([]uuid.UUID, 0, n)
	studentIDs := make([]uuid.UUID, 0, n)
	scores := make([]float64, 0, n)
	corrects := make([]int, 0, n)
	wrongs := make([]int, 0, n)
	totals := make([]int, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, res := range results {
		examIDs = append(examIDs, res.ExamID)
		studentIDs = append(studentIDs, res.StudentID)
		scores = append(scores, res.Score)
		corrects = append(corrects, res.CorrectCount)
		wrongs = append(wrongs, res.WrongCount)
		totals = append(totals, res.Total)
		submittedAts = append(submittedAts, res.SubmittedAt)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_results (exam_id, student_id, score, correct_count, wrong_count, total, submitted_at)
		 SELECT * FROM UNNEST(
			$1::uuid[], $2::uuid[], $3::float8[], $4::int[], $5::int[], $6::int[], $7::timestamptz[]
		 )
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET score = EXCLUDED.score,
		     correct_count = EXCLUDED.correct_count,
		     wrong_count = EXCLUDED.wrong_count,
		     total = EXCLUDED.total,
		     submitted_at = EXCLUDED.submitted_at`,
		examIDs, studentIDs, scores, corrects, wrongs, totals, submittedAts)
	return err
}

// ListByExam retrieves all submitted results for an exam, best score first.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT er.exam_id, e.title, er.student_id, er.score, er.correct_count, er.wrong_count, er.total, er.submitted_at
		 FROM exam_results er
		 JOIN exams e ON er.exam_id = e.id
		 WHERE er.exam_id = $1
		 ORDER BY er.score DESC, er.submitted_at ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		if err := rows.Scan(&res.ExamID, &res.ExamTitle, &res.StudentID, &res.Score,
			&res.CorrectCount, &res.WrongCount, &res.Total, &res.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
