package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/patshala/patshala-backend/internal/storage"
	"github.com/rs/zerolog"
)

/* ---------------- In-memory fakes for PaperSource, storage.KV and ResultQueue ---------------- */

type fakePaperSource struct {
	exam      *model.Exam
	questions []model.Question
	err       error
}

func (f *fakePaperSource) LoadExam(_ context.Context, examID uuid.UUID) (*model.Exam, []model.Question, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.exam == nil || f.exam.ID != examID {
		return nil, nil, service.ErrExamNotFound
	}
	return f.exam, f.questions, nil
}

type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Remove(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

type fakeQueue struct {
	results []*model.ExamResult
}

func (f *fakeQueue) Enqueue(_ context.Context, res *model.ExamResult) error {
	f.results = append(f.results, res)
	return nil
}

/* ---------------- Fixtures ---------------- */

func buildExam(duration int, numQuestions int) (*model.Exam, []model.Question) {
	exam := &model.Exam{
		ID:              uuid.New(),
		BatchID:         uuid.New(),
		Title:           "Model Test",
		DurationSeconds: duration,
		NegativeMark:    0.25,
		IsPublished:     true,
	}
	questions := make([]model.Question, numQuestions)
	for i := range questions {
		questions[i] = model.Question{
			ID:            uuid.New(),
			ExamID:        exam.ID,
			PromptText:    fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectOption: 0,
			OrderNum:      i + 1,
		}
	}
	return exam, questions
}

type engineFixture struct {
	svc   *service.ExamSessionService
	kv    *fakeKV
	queue *fakeQueue
	exam  *model.Exam
	qs    []model.Question
}

func newEngine(t *testing.T, duration, numQuestions, snapshotEvery int) *engineFixture {
	t.Helper()
	exam, questions := buildExam(duration, numQuestions)
	kv := newFakeKV()
	queue := &fakeQueue{}
	svc := service.NewExamSessionService(
		&fakePaperSource{exam: exam, questions: questions},
		kv, queue, snapshotEvery, zerolog.Nop(),
	)
	return &engineFixture{svc: svc, kv: kv, queue: queue, exam: exam, qs: questions}
}

/* ---------------- Tests ---------------- */

func TestScoreFormula(t *testing.T) {
	f := newEngine(t, 600, 4, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 2 correct, 1 wrong, 1 unanswered => 2 - 0.25 = 1.75
	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 0)
	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[1].ID, 0)
	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[2].ID, 3)

	result, err := f.svc.Submit(ctx, f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if result.Score != 1.75 {
		t.Errorf("score = %v, want 1.75", result.Score)
	}
	if result.CorrectCount != 2 || result.WrongCount != 1 || result.Total != 4 {
		t.Errorf("counts = %d/%d/%d, want 2/1/4", result.CorrectCount, result.WrongCount, result.Total)
	}
}

func TestUnansweredQuestionsAreNeutral(t *testing.T) {
	f := newEngine(t, 600, 5, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := f.svc.Submit(ctx, f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("score = %v, want 0 for fully unanswered paper", result.Score)
	}
}

func TestAnswerOverwriteInNormalMode(t *testing.T) {
	f := newEngine(t, 600, 2, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 2)
	fb := mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 0)
	if !fb.Accepted || fb.Locked {
		t.Errorf("normal mode must allow overwriting: %+v", fb)
	}
	if fb.Correct != nil {
		t.Error("normal mode must not reveal correctness")
	}

	state, err := f.svc.State(f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Answers[f.qs[0].ID] != 0 {
		t.Errorf("answer = %d, want 0 after overwrite", state.Answers[f.qs[0].ID])
	}
}

func TestPracticeModeLocksQuestion(t *testing.T) {
	f := newEngine(t, 600, 2, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, true); err != nil {
		t.Fatalf("start: %v", err)
	}

	fb := mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 3)
	if !fb.Accepted || !fb.Locked {
		t.Fatalf("first practice answer should accept and lock: %+v", fb)
	}
	if fb.Correct == nil || *fb.Correct {
		t.Errorf("feedback should mark option 3 wrong: %+v", fb)
	}

	// A second attempt is refused and the original answer stands.
	fb2 := mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 0)
	if fb2.Accepted || !fb2.Locked {
		t.Errorf("locked question must refuse changes: %+v", fb2)
	}

	result, err := f.svc.Submit(ctx, f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.WrongCount != 1 || result.CorrectCount != 0 {
		t.Errorf("locked wrong answer must score as wrong: %+v", result)
	}
}

func TestSelectAnswerValidation(t *testing.T) {
	f := newEngine(t, 600, 1, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.SelectAnswer(f.exam.ID, studentID, f.qs[0].ID, 0); !errors.Is(err, service.ErrSessionNotActive) {
		t.Errorf("answer without session: err = %v, want ErrSessionNotActive", err)
	}

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := f.svc.SelectAnswer(f.exam.ID, studentID, uuid.New(), 0); !errors.Is(err, service.ErrUnknownQuestion) {
		t.Errorf("foreign question: err = %v, want ErrUnknownQuestion", err)
	}
	if _, err := f.svc.SelectAnswer(f.exam.ID, studentID, f.qs[0].ID, 4); !errors.Is(err, service.ErrInvalidOption) {
		t.Errorf("option out of range: err = %v, want ErrInvalidOption", err)
	}
	if _, err := f.svc.SelectAnswer(f.exam.ID, studentID, f.qs[0].ID, -1); !errors.Is(err, service.ErrInvalidOption) {
		t.Errorf("negative option: err = %v, want ErrInvalidOption", err)
	}

	if _, err := f.svc.Submit(ctx, f.exam.ID, studentID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.SelectAnswer(f.exam.ID, studentID, f.qs[0].ID, 0); !errors.Is(err, service.ErrSessionSubmitted) {
		t.Errorf("answer after submit: err = %v, want ErrSessionSubmitted", err)
	}
}

func TestTimerAutoSubmitsExactlyOnce(t *testing.T) {
	f := newEngine(t, 2, 2, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 0)

	// Three ticks on a 2-second exam: the clock reaches zero on the
	// second tick and the third must not double-submit.
	f.svc.Tick(ctx)
	f.svc.Tick(ctx)
	f.svc.Tick(ctx)

	if len(f.queue.results) != 1 {
		t.Fatalf("queued results = %d, want exactly 1", len(f.queue.results))
	}
	if f.queue.results[0].CorrectCount != 1 {
		t.Errorf("auto-submitted result lost answers: %+v", f.queue.results[0])
	}

	// The session is terminal; a manual submit returns the same result.
	result, err := f.svc.Submit(ctx, f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if result != f.queue.results[0] {
		t.Error("resubmit must return the original result")
	}
	if len(f.queue.results) != 1 {
		t.Errorf("resubmit enqueued again: %d results", len(f.queue.results))
	}
}

func TestCountdownDecrementsPerTick(t *testing.T) {
	f := newEngine(t, 600, 1, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		f.svc.Tick(ctx)
	}

	state, err := f.svc.State(f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.RemainingSeconds != 597 {
		t.Errorf("remaining = %d, want 597 after 3 ticks", state.RemainingSeconds)
	}
}

func TestSnapshotPersistsAndRestores(t *testing.T) {
	f := newEngine(t, 600, 2, 2)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 1)

	// Two ticks reach the snapshot interval.
	f.svc.Tick(ctx)
	f.svc.Tick(ctx)

	// A fresh service over the same storage simulates a process restart.
	svc2 := service.NewExamSessionService(
		&fakePaperSource{exam: f.exam, questions: f.qs},
		f.kv, &fakeQueue{}, 2, zerolog.Nop(),
	)
	state, err := svc2.Start(ctx, f.exam.ID, studentID, false)
	if err != nil {
		t.Fatalf("restart start: %v", err)
	}

	if state.RemainingSeconds != 598 {
		t.Errorf("restored remaining = %d, want 598", state.RemainingSeconds)
	}
	if state.Answers[f.qs[0].ID] != 1 {
		t.Errorf("restored answers = %v, want question 0 -> 1", state.Answers)
	}
}

func TestResumeKeepsOriginalMode(t *testing.T) {
	f := newEngine(t, 600, 2, 2)
	ctx := context.Background()
	studentID := uuid.New()

	state, err := f.svc.Start(ctx, f.exam.ID, studentID, true)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !state.Practice {
		t.Fatal("session did not start in practice mode")
	}
	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 1)

	f.svc.Tick(ctx)
	f.svc.Tick(ctx)

	// Restart requesting normal mode: the snapshot's mode wins and the
	// returned state says so.
	svc2 := service.NewExamSessionService(
		&fakePaperSource{exam: f.exam, questions: f.qs},
		f.kv, &fakeQueue{}, 2, zerolog.Nop(),
	)
	state, err = svc2.Start(ctx, f.exam.ID, studentID, false)
	if err != nil {
		t.Fatalf("restart start: %v", err)
	}
	if !state.Practice {
		t.Error("resumed session dropped practice mode")
	}

	// The wrong answer from before the restart is still locked.
	fb, err := svc2.SelectAnswer(f.exam.ID, studentID, f.qs[0].ID, 0)
	if err != nil {
		t.Fatalf("select answer: %v", err)
	}
	if fb.Accepted || !fb.Locked {
		t.Errorf("feedback = %+v, want locked and not accepted", fb)
	}
}

func TestSubmitClearsSnapshot(t *testing.T) {
	f := newEngine(t, 600, 1, 1)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.svc.Tick(ctx) // writes a snapshot

	if _, err := f.svc.Submit(ctx, f.exam.ID, studentID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// After submit the only KV entry left is the last-result slot.
	if len(f.kv.data) != 1 {
		t.Errorf("kv entries = %d, want 1 (the last-result slot)", len(f.kv.data))
	}
}

func TestLastResultSlot(t *testing.T) {
	f := newEngine(t, 600, 2, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.LastResult(ctx, studentID); !errors.Is(err, service.ErrNoResult) {
		t.Errorf("empty slot: err = %v, want ErrNoResult", err)
	}

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustAnswer(t, f.svc, f.exam.ID, studentID, f.qs[0].ID, 0)
	submitted, err := f.svc.Submit(ctx, f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	last, err := f.svc.LastResult(ctx, studentID)
	if err != nil {
		t.Fatalf("last result: %v", err)
	}
	if last.Score != submitted.Score || last.ExamID != submitted.ExamID {
		t.Errorf("last result = %+v, want %+v", last, submitted)
	}
}

func TestWatchReceivesTicksAndSubmit(t *testing.T) {
	f := newEngine(t, 600, 1, 5)
	ctx := context.Background()
	studentID := uuid.New()

	if _, err := f.svc.Start(ctx, f.exam.ID, studentID, false); err != nil {
		t.Fatalf("start: %v", err)
	}

	ticks, cancel, err := f.svc.Watch(f.exam.ID, studentID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	f.svc.Tick(ctx)
	ev := <-ticks
	if ev.RemainingSeconds != 599 || ev.Submitted {
		t.Errorf("tick event = %+v, want remaining 599", ev)
	}

	if _, err := f.svc.Submit(ctx, f.exam.ID, studentID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	ev = <-ticks
	if !ev.Submitted {
		t.Errorf("expected submitted event, got %+v", ev)
	}
	if _, ok := <-ticks; ok {
		t.Error("channel should be closed after submit")
	}
}

func mustAnswer(t *testing.T, svc *service.ExamSessionService, examID, studentID, questionID uuid.UUID, option int) *model.AnswerFeedback {
	t.Helper()
	fb, err := svc.SelectAnswer(examID, studentID, questionID, option)
	if err != nil {
		t.Fatalf("select answer: %v", err)
	}
	return fb
}
