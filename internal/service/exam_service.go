package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/patshala/patshala-backend/internal/config"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exam lookup errors.
var (
	ErrExamNotFound = errors.New("exam not found")
	ErrNoQuestions  = errors.New("exam has no questions")
)

// ExamService is the question store: it serves exam papers (answers
// stripped, cached in Redis) and solve sheets, and loads full question
// sets for the session engine.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository, resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// LoadExam fetches an exam and its full question set (correct answers
// included) for the session engine. Satisfies PaperSource.
func (s *ExamService) LoadExam(ctx context.Context, examID uuid.UUID) (*model.Exam, []model.Question, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return nil, nil, err
	}

	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil, ErrNoQuestions
	}

	return exam, questions, nil
}

// GetPaper returns the exam paper with gradable fields stripped. Papers
// are cached in Redis with a Postgres fallback that self-heals the cache.
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	cacheKey := config.CacheKey.ExamPaperKey(examID.String())

	cached, err := s.rdb.Get(ctx, cacheKey).Result()
	if err == nil {
		var paper model.ExamPaper
		if err := json.Unmarshal([]byte(cached), &paper); err == nil {
			return &paper, nil
		}
		// Corrupt cache entry; fall through to the database.
		s.rdb.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("paper cache read failed")
	}

	exam, questions, err := s.LoadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	paper := &model.ExamPaper{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationSeconds: exam.DurationOrDefault(),
		NegativeMark:    exam.NegativeMark,
		Questions:       make([]model.QuestionForStudent, 0, len(questions)),
	}
	for i := range questions {
		paper.Questions = append(paper.Questions, questions[i].ForStudent())
	}

	if raw, err := json.Marshal(paper); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, raw, 0).Err(); err != nil {
			s.log.Warn().Err(err).Msg("paper cache write failed")
		}
	}

	return paper, nil
}

// RefreshPaperCache drops the cached paper so the next read rebuilds it.
func (s *ExamService) RefreshPaperCache(ctx context.Context, examID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID.String())).Err()
}

// GetSolveSheet returns the full post-submission review: every question
// with its correct option and explanation, plus composite review
// questions.
func (s *ExamService) GetSolveSheet(ctx context.Context, examID uuid.UUID) (*model.SolveSheet, error) {
	exam, questions, err := s.LoadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	composite, err := s.questionRepo.ListCompositeByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list composite questions: %w", err)
	}

	return &model.SolveSheet{
		ExamID:             exam.ID,
		Title:              exam.Title,
		Questions:          questions,
		CompositeQuestions: composite,
	}, nil
}

// ListByBatch returns the published exams of a batch.
func (s *ExamService) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]model.Exam, error) {
	return s.examRepo.ListByBatch(ctx, batchID)
}

// ListResults returns the persisted results of an exam, best score first.
func (s *ExamService) ListResults(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	if _, err := s.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.resultRepo.ListByExam(ctx, examID)
}

// GetExam retrieves a single exam. Unpublished exams are hidden: they
// do not exist as far as callers are concerned.
func (s *ExamService) GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !exam.IsPublished {
		return nil, ErrExamNotFound
	}
	return exam, nil
}
