// Package quiz drives a single quiz attempt from acquisition to a recorded
// result.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luminalearn/lumina/internal/model"
)

// Phase is the state of the attempt machine.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseAcquiring  Phase = "acquiring"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// NoSelection marks a question with no chosen option.
const NoSelection = -1

var (
	// ErrSessionActive is returned by Start while another attempt is acquiring or in progress.
	ErrSessionActive = errors.New("quiz session already active")
	// ErrInvalidTransition is returned when an operation is not allowed in the current phase.
	ErrInvalidTransition = errors.New("operation not allowed in current phase")
	// ErrNoSelection is returned by Advance when the current question has no answer.
	ErrNoSelection = errors.New("no answer selected")
	// ErrOptionOutOfRange is returned by SelectAnswer for an invalid option index.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrRecordAttempt wraps history failures returned by Advance. The attempt
	// is still finished when it is returned.
	ErrRecordAttempt = errors.New("record attempt")
	// ErrAbandoned is returned by Start when the session was reset before acquisition resolved.
	ErrAbandoned = errors.New("session reset before quiz was acquired")
)

// Acquirer supplies a quiz for a lesson context. It may block and may fail.
type Acquirer interface {
	FetchQuiz(ctx context.Context, lessonContext string) (model.Quiz, error)
}

// AcquirerFunc adapts a function to the Acquirer interface.
type AcquirerFunc func(ctx context.Context, lessonContext string) (model.Quiz, error)

// FetchQuiz calls f.
func (f AcquirerFunc) FetchQuiz(ctx context.Context, lessonContext string) (model.Quiz, error) {
	return f(ctx, lessonContext)
}

// Result is exposed once an attempt finishes.
type Result struct {
	Outcome Outcome                `json:"outcome"`
	Attempt model.CompletedAttempt `json:"attempt"`
}

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	Phase        Phase        `json:"phase"`
	SessionID    string       `json:"session_id,omitempty"`
	Lesson       model.Lesson `json:"lesson"`
	Quiz         model.Quiz   `json:"quiz"`
	CurrentIndex int          `json:"current_index"`
	Selected     int          `json:"selected"`
	Score        int          `json:"score"`
	Fallback     bool         `json:"fallback"`
	Result       *Result      `json:"result,omitempty"`
}

// Current returns the question being answered, if any.
func (s Snapshot) Current() (model.QuizQuestion, bool) {
	if s.Phase != PhaseInProgress || s.CurrentIndex >= len(s.Quiz.Questions) {
		return model.QuizQuestion{}, false
	}
	return s.Quiz.Questions[s.CurrentIndex], true
}

type session struct {
	id           string
	lesson       model.Lesson
	quiz         model.Quiz
	currentIndex int
	selected     int
	score        int
	fallback     bool
}

// Machine owns at most one attempt session. It is safe for concurrent use;
// the only blocking point is the acquisition inside Start, which runs
// without holding the lock.
type Machine struct {
	acquirer Acquirer
	history  History
	now      func() time.Time
	newID    func() string

	mu     sync.Mutex
	phase  Phase
	sess   *session
	result *Result
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the time source used to date attempts.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithIDGenerator overrides session and attempt ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(m *Machine) { m.newID = newID }
}

// New creates a machine in the NotStarted phase. A nil acquirer always
// yields the fallback quiz; a nil history keeps attempts in memory.
func New(acquirer Acquirer, history History, opts ...Option) *Machine {
	if history == nil {
		history = NewMemoryHistory()
	}
	m := &Machine{
		acquirer: acquirer,
		history:  history,
		now:      time.Now,
		newID:    uuid.NewString,
		phase:    PhaseNotStarted,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start acquires a quiz for the lesson and begins a fresh attempt. It is
// rejected while another attempt is acquiring or in progress. Acquisition
// failures never surface: the fallback quiz is substituted before the
// session resumes.
func (m *Machine) Start(ctx context.Context, lesson model.Lesson) (Snapshot, error) {
	m.mu.Lock()
	if m.phase == PhaseAcquiring || m.phase == PhaseInProgress {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrSessionActive
	}
	id := m.newID()
	m.phase = PhaseAcquiring
	m.sess = &session{id: id, lesson: lesson, selected: NoSelection}
	m.result = nil
	m.mu.Unlock()

	slog.Debug("acquiring quiz", "session", id, "lesson", lesson.Title)
	quiz, fallback := m.acquire(ctx, lesson)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseAcquiring || m.sess == nil || m.sess.id != id {
		slog.Info("discarding quiz for abandoned session", "session", id)
		return m.snapshotLocked(), ErrAbandoned
	}
	m.sess.quiz = quiz
	m.sess.fallback = fallback
	m.phase = PhaseInProgress
	slog.Info("quiz started", "session", id, "title", quiz.Title,
		"questions", len(quiz.Questions), "fallback", fallback)
	return m.snapshotLocked(), nil
}

// StartResult is delivered by StartAsync.
type StartResult struct {
	Snapshot Snapshot
	Err      error
}

// StartAsync runs Start in a goroutine. The channel receives exactly one
// value and is then closed.
func (m *Machine) StartAsync(ctx context.Context, lesson model.Lesson) <-chan StartResult {
	ch := make(chan StartResult, 1)
	go func() {
		defer close(ch)
		snap, err := m.Start(ctx, lesson)
		ch <- StartResult{Snapshot: snap, Err: err}
	}()
	return ch
}

func (m *Machine) acquire(ctx context.Context, lesson model.Lesson) (model.Quiz, bool) {
	if m.acquirer == nil {
		return FallbackQuiz(lesson.Title), true
	}
	quiz, err := m.acquirer.FetchQuiz(ctx, lesson.Context())
	if err == nil {
		err = quiz.Validate()
	}
	if err != nil {
		slog.Warn("quiz acquisition failed, using fallback", "lesson", lesson.Title, "error", err)
		return FallbackQuiz(lesson.Title), true
	}
	return quiz.Clone(), false
}

// SelectAnswer records the option chosen for the current question,
// replacing any earlier choice.
func (m *Machine) SelectAnswer(option int) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseInProgress {
		return m.snapshotLocked(), ErrInvalidTransition
	}
	opts := m.sess.quiz.Questions[m.sess.currentIndex].Options
	if option < 0 || option >= len(opts) {
		return m.snapshotLocked(), ErrOptionOutOfRange
	}
	m.sess.selected = option
	return m.snapshotLocked(), nil
}

// Advance scores the current question and moves to the next one, or
// finishes the attempt and records it in the history. If the history
// rejects the record the attempt still finishes and the error is returned.
func (m *Machine) Advance(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseInProgress {
		return m.snapshotLocked(), ErrInvalidTransition
	}
	s := m.sess
	if s.selected == NoSelection {
		return m.snapshotLocked(), ErrNoSelection
	}

	total := len(s.quiz.Questions)
	if s.selected == s.quiz.Questions[s.currentIndex].CorrectAnswer {
		s.score++
	}
	if s.currentIndex+1 < total {
		s.currentIndex++
		s.selected = NoSelection
		return m.snapshotLocked(), nil
	}

	s.currentIndex = total
	outcome := Finalize(s.score, total)
	now := m.now()
	attempt := model.CompletedAttempt{
		ID:          m.newID(),
		CourseTitle: s.lesson.CourseTitle,
		QuizTitle:   s.quiz.Title,
		Date:        now.Format(model.AttemptDateLayout),
		Score:       outcome.Fraction(),
		Status:      outcome.Status,
		Correct:     outcome.Correct,
		Total:       outcome.Total,
		CompletedAt: now,
	}
	m.phase = PhaseFinished
	m.result = &Result{Outcome: outcome, Attempt: attempt}
	slog.Info("quiz finished", "session", s.id, "score", attempt.Score, "status", attempt.Status)

	// The attempt is final at this point; a cancelled caller must not drop it.
	if err := m.history.Append(context.WithoutCancel(ctx), attempt); err != nil {
		slog.Error("failed to record attempt", "session", s.id, "attempt", attempt.ID, "error", err)
		return m.snapshotLocked(), fmt.Errorf("%w: %w", ErrRecordAttempt, err)
	}
	return m.snapshotLocked(), nil
}

// Reset discards the current session without recording anything.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseNotStarted {
		return
	}
	if m.sess != nil {
		slog.Debug("quiz session reset", "session", m.sess.id, "phase", m.phase)
	}
	m.phase = PhaseNotStarted
	m.sess = nil
	m.result = nil
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// History returns the store finished attempts are appended to.
func (m *Machine) History() History {
	return m.history
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{Phase: m.phase, Selected: NoSelection}
	if s := m.sess; s != nil {
		snap.SessionID = s.id
		snap.Lesson = s.lesson
		snap.Quiz = s.quiz.Clone()
		snap.CurrentIndex = s.currentIndex
		snap.Selected = s.selected
		snap.Score = s.score
		snap.Fallback = s.fallback
	}
	if m.result != nil {
		r := *m.result
		snap.Result = &r
	}
	return snap
}
