package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/config"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/storage"
	"github.com/rs/zerolog"
)

// Session engine errors.
var (
	ErrSessionNotActive = errors.New("no active session for this exam")
	ErrSessionSubmitted = errors.New("session already submitted")
	ErrUnknownQuestion  = errors.New("question does not belong to this exam")
	ErrInvalidOption    = errors.New("option index out of range")
	ErrNoResult         = errors.New("no result available")
)

// TickEvent is pushed to session watchers once per second.
type TickEvent struct {
	RemainingSeconds int  `json:"remaining_seconds"`
	Submitted        bool `json:"submitted"`
}

type sessionKey struct {
	examID    uuid.UUID
	studentID uuid.UUID
}

// session is one live exam attempt. All fields are guarded by the
// service mutex.
type session struct {
	exam          *model.Exam
	questions     []model.Question
	byID          map[uuid.UUID]*model.Question
	answers       map[uuid.UUID]int
	locked        map[uuid.UUID]bool
	remaining     int
	practice      bool
	status        model.SessionStatus
	studentID     uuid.UUID
	sinceSnapshot int
	result        *model.ExamResult
	watchers      []chan TickEvent
}

// ExamSessionService runs timed exam attempts: a registry of in-memory
// sessions driven by a single one-second runner, with periodic snapshots
// to durable storage for crash/reload recovery. Timeout and explicit
// submit both score the attempt and hand off an immutable result.
type ExamSessionService struct {
	src           PaperSource
	kv            storage.KV
	results       ResultQueue
	log           zerolog.Logger
	snapshotEvery int

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

// NewExamSessionService creates a new ExamSessionService.
// snapshotEvery is the number of ticks between durable snapshots.
func NewExamSessionService(src PaperSource, kv storage.KV, results ResultQueue, snapshotEvery int, log zerolog.Logger) *ExamSessionService {
	if snapshotEvery < 1 {
		snapshotEvery = 5
	}
	return &ExamSessionService{
		src:           src,
		kv:            kv,
		results:       results,
		log:           log.With().Str("component", "exam_session").Logger(),
		snapshotEvery: snapshotEvery,
		sessions:      make(map[sessionKey]*session),
	}
}

// Run drives all active sessions on a one-second tick until ctx is
// cancelled, then snapshots whatever is still in progress. Call in a
// goroutine; tests call Tick directly instead.
func (s *ExamSessionService) Run(ctx context.Context) {
	s.log.Info().Msg("session runner started")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flushAll(context.Background())
			s.log.Info().Msg("session runner stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Start opens (or resumes) a session for the student on the given exam.
// A previously saved snapshot restores answers, the remaining countdown
// AND the mode: a resumed attempt keeps the mode it was started with,
// and the practice argument is ignored. The returned state reports the
// effective mode. Without a snapshot the countdown starts at the exam
// duration. An in-memory session already in progress is returned as-is.
func (s *ExamSessionService) Start(ctx context.Context, examID, studentID uuid.UUID, practice bool) (*model.SessionState, error) {
	key := sessionKey{examID: examID, studentID: studentID}

	s.mu.Lock()
	if sess, ok := s.sessions[key]; ok && sess.status == model.SessionStatusInProgress {
		state := sess.state(examID)
		s.mu.Unlock()
		return state, nil
	}
	s.mu.Unlock()

	// Loading the paper happens outside the lock; a missing question set
	// is fatal and surfaced to the caller.
	exam, questions, err := s.src.LoadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	sess := &session{
		exam:      exam,
		questions: questions,
		byID:      make(map[uuid.UUID]*model.Question, len(questions)),
		answers:   make(map[uuid.UUID]int),
		locked:    make(map[uuid.UUID]bool),
		remaining: exam.DurationOrDefault(),
		practice:  practice,
		status:    model.SessionStatusInProgress,
		studentID: studentID,
	}
	for i := range questions {
		sess.byID[questions[i].ID] = &questions[i]
	}

	// Restore a saved snapshot if one exists for this exam.
	if raw, err := s.kv.Get(ctx, config.CacheKey.ExamProgressKey(examID.String(), studentID.String())); err == nil {
		var snap model.SessionSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err == nil && snap.RemainingSeconds > 0 {
			for qid, opt := range snap.Answers {
				if _, ok := sess.byID[qid]; ok {
					sess.answers[qid] = opt
				}
			}
			for qid := range snap.LockedQuestions {
				sess.locked[qid] = true
			}
			sess.remaining = snap.RemainingSeconds
			sess.practice = snap.Practice
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn().Err(err).Msg("snapshot restore failed, starting fresh")
	}

	s.mu.Lock()
	s.sessions[key] = sess
	state := sess.state(examID)
	s.mu.Unlock()

	return state, nil
}

// SelectAnswer records (or overwrites) the student's answer for one
// question. In practice mode the first answer locks the question and the
// feedback reveals correctness immediately; later attempts on a locked
// question leave the original answer unchanged.
func (s *ExamSessionService) SelectAnswer(examID, studentID, questionID uuid.UUID, optionIndex int) (*model.AnswerFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey{examID: examID, studentID: studentID}]
	if !ok {
		return nil, ErrSessionNotActive
	}
	if sess.status != model.SessionStatusInProgress {
		return nil, ErrSessionSubmitted
	}

	q, ok := sess.byID[questionID]
	if !ok {
		return nil, ErrUnknownQuestion
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return nil, ErrInvalidOption
	}

	if sess.locked[questionID] {
		correct := sess.answers[questionID] == q.CorrectOption
		return &model.AnswerFeedback{Accepted: false, Locked: true, Correct: &correct}, nil
	}

	sess.answers[questionID] = optionIndex

	fb := &model.AnswerFeedback{Accepted: true}
	if sess.practice {
		correct := optionIndex == q.CorrectOption
		fb.Correct = &correct
		fb.Locked = true
		sess.locked[questionID] = true
	}
	return fb, nil
}

// State returns the live view of a session for page reload.
func (s *ExamSessionService) State(examID, studentID uuid.UUID) (*model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey{examID: examID, studentID: studentID}]
	if !ok {
		return nil, ErrSessionNotActive
	}
	return sess.state(examID), nil
}

// Tick advances every in-progress session by one second. Sessions that
// reach zero are auto-submitted exactly once; snapshots are written every
// snapshotEvery ticks, best-effort.
func (s *ExamSessionService) Tick(ctx context.Context) {
	type expired struct {
		key  sessionKey
		sess *session
	}

	s.mu.Lock()
	var toSubmit []expired
	for key, sess := range s.sessions {
		if sess.status != model.SessionStatusInProgress {
			continue
		}
		sess.remaining--
		if sess.remaining <= 0 {
			sess.remaining = 0
			toSubmit = append(toSubmit, expired{key: key, sess: sess})
			continue
		}
		sess.notify(TickEvent{RemainingSeconds: sess.remaining})
		sess.sinceSnapshot++
		if sess.sinceSnapshot >= s.snapshotEvery {
			sess.sinceSnapshot = 0
			s.persistLocked(ctx, key, sess)
		}
	}
	s.mu.Unlock()

	for _, e := range toSubmit {
		if _, err := s.Submit(ctx, e.key.examID, e.key.studentID); err != nil && !errors.Is(err, ErrSessionSubmitted) {
			s.log.Error().Err(err).
				Stringer("exam_id", e.key.examID).
				Stringer("student_id", e.key.studentID).
				Msg("auto-submit failed")
		}
	}
}

// Submit scores the session and transitions it to its terminal state.
// Scoring: +1 per correct answer, minus the exam's negative mark per
// wrong answer, 0 for unanswered. The result is written to the student's
// last-result slot (last submission wins), queued for the persistence
// worker, and the in-progress snapshot is cleared. Submitting an
// already-submitted session returns the original result.
func (s *ExamSessionService) Submit(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamResult, error) {
	key := sessionKey{examID: examID, studentID: studentID}

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	if sess.status == model.SessionStatusSubmitted {
		res := sess.result
		s.mu.Unlock()
		return res, nil
	}

	result := sess.score(examID, studentID)
	sess.status = model.SessionStatusSubmitted
	sess.result = result
	sess.notify(TickEvent{RemainingSeconds: sess.remaining, Submitted: true})
	sess.closeWatchers()
	s.mu.Unlock()

	// Durable side effects happen outside the lock. Each is best-effort
	// and independently logged; the in-memory result stands regardless.
	if raw, err := json.Marshal(result); err == nil {
		if err := s.kv.Set(ctx, config.CacheKey.LastExamResultKey(studentID.String()), string(raw)); err != nil {
			s.log.Error().Err(err).Stringer("student_id", studentID).Msg("last-result slot write failed")
		}
	}

	if err := s.results.Enqueue(ctx, result); err != nil {
		s.log.Error().Err(err).Stringer("exam_id", examID).Msg("result enqueue failed")
	}

	if err := s.kv.Remove(ctx, config.CacheKey.ExamProgressKey(examID.String(), studentID.String())); err != nil {
		s.log.Warn().Err(err).Msg("snapshot cleanup failed")
	}

	return result, nil
}

// LastResult reads the student's last-result slot.
func (s *ExamSessionService) LastResult(ctx context.Context, studentID uuid.UUID) (*model.ExamResult, error) {
	raw, err := s.kv.Get(ctx, config.CacheKey.LastExamResultKey(studentID.String()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoResult
		}
		return nil, err
	}
	var result model.ExamResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Watch subscribes to a session's tick events for the countdown stream.
// The returned cancel func must be called when the subscriber goes away.
func (s *ExamSessionService) Watch(examID, studentID uuid.UUID) (<-chan TickEvent, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionKey{examID: examID, studentID: studentID}]
	if !ok {
		return nil, nil, ErrSessionNotActive
	}
	if sess.status != model.SessionStatusInProgress {
		return nil, nil, ErrSessionSubmitted
	}

	ch := make(chan TickEvent, 8)
	sess.watchers = append(sess.watchers, ch)

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range sess.watchers {
			if w == ch {
				sess.watchers = append(sess.watchers[:i], sess.watchers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}

// persistLocked writes a snapshot for one session. Caller holds the
// mutex. Failures are logged and skipped: persistence is best-effort and
// never interrupts a running exam.
func (s *ExamSessionService) persistLocked(ctx context.Context, key sessionKey, sess *session) {
	snap := model.SessionSnapshot{
		ExamID:           key.examID,
		Answers:          sess.answers,
		RemainingSeconds: sess.remaining,
		Practice:         sess.practice,
		LockedQuestions:  sess.locked,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, config.CacheKey.ExamProgressKey(key.examID.String(), key.studentID.String()), string(raw)); err != nil {
		s.log.Warn().Err(err).Stringer("exam_id", key.examID).Msg("snapshot write failed")
	}
}

// flushAll snapshots every in-progress session. Used on shutdown.
func (s *ExamSessionService) flushAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sess := range s.sessions {
		if sess.status == model.SessionStatusInProgress {
			s.persistLocked(ctx, key, sess)
		}
	}
}

func (sess *session) state(examID uuid.UUID) *model.SessionState {
	answers := make(map[uuid.UUID]int, len(sess.answers))
	for qid, opt := range sess.answers {
		answers[qid] = opt
	}
	return &model.SessionState{
		ExamID:           examID,
		Status:           sess.status,
		Answers:          answers,
		RemainingSeconds: sess.remaining,
		Practice:         sess.practice,
	}
}

func (sess *session) score(examID, studentID uuid.UUID) *model.ExamResult {
	correct, wrong := 0, 0
	for _, q := range sess.questions {
		chosen, answered := sess.answers[q.ID]
		if !answered {
			continue
		}
		if chosen == q.CorrectOption {
			correct++
		} else {
			wrong++
		}
	}

	answers := make(map[uuid.UUID]int, len(sess.answers))
	for qid, opt := range sess.answers {
		answers[qid] = opt
	}

	return &model.ExamResult{
		ExamID:       examID,
		ExamTitle:    sess.exam.Title,
		StudentID:    studentID,
		Score:        float64(correct) - float64(wrong)*sess.exam.NegativeMark,
		CorrectCount: correct,
		WrongCount:   wrong,
		Total:        len(sess.questions),
		Answers:      answers,
		SubmittedAt:  time.Now(),
	}
}

// notify pushes an event to every watcher without blocking on slow ones.
func (sess *session) notify(ev TickEvent) {
	for _, ch := range sess.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (sess *session) closeWatchers() {
	for _, ch := range sess.watchers {
		close(ch)
	}
	sess.watchers = nil
}
