package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/luminalearn/lumina/internal/model"
)

var fixedNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func question(text string, correct int) model.QuizQuestion {
	return model.QuizQuestion{
		Question:      text,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Explanation:   "because",
	}
}

func threeQuestionQuiz() model.Quiz {
	return model.Quiz{
		Title: "HTML Basics",
		Questions: []model.QuizQuestion{
			question("Q1", 0),
			question("Q2", 2),
			question("Q3", 1),
		},
	}
}

func staticAcquirer(q model.Quiz, err error) Acquirer {
	return AcquirerFunc(func(context.Context, string) (model.Quiz, error) {
		return q, err
	})
}

type failingHistory struct {
	appends int
}

func (h *failingHistory) Append(context.Context, model.CompletedAttempt) error {
	h.appends++
	return errors.New("disk full")
}

func (h *failingHistory) LoadAll(context.Context) ([]model.CompletedAttempt, error) {
	return nil, nil
}

type countingHistory struct {
	*MemoryHistory
	appends int
}

func (h *countingHistory) Append(ctx context.Context, a model.CompletedAttempt) error {
	h.appends++
	return h.MemoryHistory.Append(ctx, a)
}

func newTestMachine(t *testing.T, acq Acquirer, h History) *Machine {
	t.Helper()
	n := 0
	return New(acq, h,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
}

var lesson = model.Lesson{CourseTitle: "Pro Course", Title: "What is HTML?", Content: "HTML is markup."}

func mustStart(t *testing.T, m *Machine) Snapshot {
	t.Helper()
	snap, err := m.Start(context.Background(), lesson)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return snap
}

func answer(t *testing.T, m *Machine, option int) Snapshot {
	t.Helper()
	if _, err := m.SelectAnswer(option); err != nil {
		t.Fatalf("SelectAnswer(%d): %v", option, err)
	}
	snap, err := m.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	return snap
}

func TestStartInitialisesSession(t *testing.T) {
	m := newTestMachine(t, staticAcquirer(threeQuestionQuiz(), nil), nil)
	if m.Snapshot().Phase != PhaseNotStarted {
		t.Fatalf("expected not_started, got %q", m.Snapshot().Phase)
	}

	snap := mustStart(t, m)
	if snap.Phase != PhaseInProgress {
		t.Errorf("phase = %q, want in_progress", snap.Phase)
	}
	if snap.CurrentIndex != 0 || snap.Score != 0 || snap.Selected != NoSelection {
		t.Errorf("unexpected fresh session: %+v", snap)
	}
	if snap.Fallback {
		t.Error("did not expect fallback quiz")
	}
	if len(snap.Quiz.Questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(snap.Quiz.Questions))
	}
	cur, ok := snap.Current()
	if !ok || cur.Question != "Q1" {
		t.Errorf("Current() = %+v, %v", cur, ok)
	}
}

func TestStartPassesLessonContext(t *testing.T) {
	var got string
	acq := AcquirerFunc(func(_ context.Context, c string) (model.Quiz, error) {
		got = c
		return threeQuestionQuiz(), nil
	})
	m := newTestMachine(t, acq, nil)
	mustStart(t, m)
	if got != lesson.Context() {
		t.Errorf("acquirer got %q, want %q", got, lesson.Context())
	}
}

func TestStartFallback(t *testing.T) {
	tests := []struct {
		name string
		acq  Acquirer
	}{
		{"acquirer error", staticAcquirer(model.Quiz{}, errors.New("timeout"))},
		{"zero questions", staticAcquirer(model.Quiz{Title: "empty"}, nil)},
		{"wrong option count", staticAcquirer(model.Quiz{Title: "bad", Questions: []model.QuizQuestion{{
			Question: "q", Options: []string{"a", "b"}, CorrectAnswer: 0,
		}}}, nil)},
		{"nil acquirer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.acq, nil)
			snap, err := m.Start(context.Background(), lesson)
			if err != nil {
				t.Fatalf("Start returned error: %v", err)
			}
			if snap.Phase != PhaseInProgress {
				t.Errorf("phase = %q, want in_progress", snap.Phase)
			}
			if !snap.Fallback {
				t.Error("expected fallback flag")
			}
			if len(snap.Quiz.Questions) != 1 {
				t.Errorf("fallback quiz has %d questions, want 1", len(snap.Quiz.Questions))
			}
			if snap.Quiz.Title != lesson.Title {
				t.Errorf("fallback title = %q, want %q", snap.Quiz.Title, lesson.Title)
			}
		})
	}
}

func TestStartRejectedWhileActive(t *testing.T) {
	m := newTestMachine(t, staticAcquirer(threeQuestionQuiz(), nil), nil)
	mustStart(t, m)
	if _, err := m.SelectAnswer(1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	snap, err := m.Start(context.Background(), lesson)
	if !errors.Is(err, ErrSessionActive) {
		t.Fatalf("Start while active = %v, want ErrSessionActive", err)
	}
	if snap.Selected != 1 || snap.SessionID != "id-1" {
		t.Errorf("active session was disturbed: %+v", snap)
	}
}

func TestFullRunScoresWithinBounds(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for pick := 0; pick < model.OptionsPerQuestion; pick++ {
			t.Run(fmt.Sprintf("n=%d/pick=%d", n, pick), func(t *testing.T) {
				q := model.Quiz{Title: "t"}
				for i := 0; i < n; i++ {
					q.Questions = append(q.Questions, question(fmt.Sprintf("Q%d", i), i%4))
				}
				m := newTestMachine(t, staticAcquirer(q, nil), nil)
				mustStart(t, m)
				var snap Snapshot
				for i := 0; i < n; i++ {
					snap = answer(t, m, pick)
				}
				if snap.Phase != PhaseFinished {
					t.Fatalf("phase = %q, want finished", snap.Phase)
				}
				if snap.Score < 0 || snap.Score > n {
					t.Errorf("score %d out of [0,%d]", snap.Score, n)
				}
				if snap.CurrentIndex > n {
					t.Errorf("current index %d exceeds %d", snap.CurrentIndex, n)
				}
			})
		}
	}
}

func TestScenarioTwoOfThree(t *testing.T) {
	h := NewMemoryHistory()
	m := newTestMachine(t, staticAcquirer(threeQuestionQuiz(), nil), h)
	mustStart(t, m)

	var snap Snapshot
	for _, pick := range []int{0, 1, 1} {
		snap = answer(t, m, pick)
	}

	if snap.Phase != PhaseFinished {
		t.Fatalf("phase = %q, want finished", snap.Phase)
	}
	if snap.Score != 2 {
		t.Errorf("score = %d, want 2", snap.Score)
	}
	if snap.Result == nil {
		t.Fatal("expected result")
	}
	a := snap.Result.Attempt
	if a.Score != "2/3" || a.Status != model.StatusPassed {
		t.Errorf("attempt = %+v, want 2/3 Passed", a)
	}
	if a.CourseTitle != "Pro Course" || a.QuizTitle != "HTML Basics" {
		t.Errorf("unexpected titles: %+v", a)
	}
	if a.Date != "Mar 14, 2026" {
		t.Errorf("date = %q", a.Date)
	}

	all, _ := h.LoadAll(context.Background())
	if len(all) != 1 || all[0].ID != a.ID {
		t.Errorf("history = %+v", all)
	}
}

func TestScenarioFallbackWrongAnswer(t *testing.T) {
	h := NewMemoryHistory()
	earlier := model.CompletedAttempt{ID: "earlier", QuizTitle: "Older", Score: "1/1", Status: model.StatusPassed}
	if err := h.Append(context.Background(), earlier); err != nil {
		t.Fatalf("Append: %v", err)
	}

	m := newTestMachine(t, staticAcquirer(model.Quiz{}, errors.New("network down")), h)
	snap := mustStart(t, m)
	wrong := (snap.Quiz.Questions[0].CorrectAnswer + 1) % model.OptionsPerQuestion

	snap = answer(t, m, wrong)
	if snap.Phase != PhaseFinished {
		t.Fatalf("single-question quiz should finish after one advance, phase = %q", snap.Phase)
	}
	if snap.Score != 0 || snap.Result.Attempt.Status != model.StatusFailed {
		t.Errorf("expected 0 Failed, got %d %q", snap.Score, snap.Result.Attempt.Status)
	}

	all, _ := h.LoadAll(context.Background())
	if len(all) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(all))
	}
	if all[0].ID != snap.Result.Attempt.ID {
		t.Errorf("newest attempt not first: %+v", all)
	}
}

func TestAdvanceWithoutSelectionIsRejected(t *testing.T) {
	m := newTestMachine(t, staticAcquirer(threeQuestionQuiz(), nil), nil)
	mustStart(t, m)
	answer(t, m, 0)

	before := m.Snapshot()
	snap, err := m.Advance(context.Background())
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("Advance = %v, want ErrNoSelection", err)
	}
	if snap.Score != before.Score || snap.CurrentIndex != before.CurrentIndex {
		t.Errorf("state changed: before %+v after %+v", before, snap)
	}
}

func TestSelectAnswer(t *testing.T) {
	m := newTestMachine(t, staticAcquirer(threeQuestionQuiz(), nil), nil)

	if _, err := m.SelectAnswer(0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SelectAnswer before start = %v, want ErrInvalidTransition", err)
	}

	mustStart(t, m)
	for _, bad := range []int{-1, 4, 10} {
		if _, err := m.SelectAnswer(bad); !errors.Is(err, ErrOptionOutOfRange) {
			t.Errorf("SelectAnswer(%d) = %v, want ErrOptionOutOfRange", bad, err)
		}
	}

	if _, err := m.SelectAnswer(3); err != nil {
		t.Fatalf("SelectAnswer(3): %v", err)
	}
	snap, err := m.SelectAnswer(0)
	if err != nil {
		t.Fatalf("SelectAnswer(0): %v", err)
	}
	if snap.Selected != 0 {
		t.Errorf("overwrite failed, selected = %d", snap.Selected)
	}
	snap, _ = m.Advance(context.Background())
	if snap.Score != 1 {
		t.Errorf("overwritten choice not scored, score = %d", snap.Score)
	}
}

func TestOperationsAfterFinishAreRejected(t *testing.T) {
	h := &countingHistory{MemoryHistory: NewMemoryHistory()}
	m := newTestMachine(t, staticAcquirer(model.Quiz{}, errors.New("x")), h)
	mustStart(t, m)
	answer(t, m, 1)

	if _, err := m.SelectAnswer(0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SelectAnswer after finish = %v", err)
	}
	if _, err := m.Advance(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance after finish = %v", err)
	}
	if h.appends != 1 {
		t.Errorf("expected exactly one append, got %d", h.appends)
	}
}

func TestResetNeverRecords(t *testing.T) {
	h := &countingHistory{MemoryHistory: NewMemoryHistory()}
	m := newTestMachine(t, staticAcquirer(threeQuestionQuiz(), nil), h)

	m.Reset()
	if m.Snapshot().Phase != PhaseNotStarted {
		t.Fatal("reset from not_started changed phase")
	}

	mustStart(t, m)
	answer(t, m, 0)
	m.Reset()
	snap := m.Snapshot()
	if snap.Phase != PhaseNotStarted || snap.SessionID != "" || snap.Score != 0 {
		t.Errorf("reset from in_progress left state: %+v", snap)
	}
	if h.appends != 0 {
		t.Errorf("reset recorded %d attempts", h.appends)
	}

	mustStart(t, m)
	for _, pick := range []int{0, 2, 1} {
		answer(t, m, pick)
	}
	m.Reset()
	if m.Snapshot().Phase != PhaseNotStarted || m.Snapshot().Result != nil {
		t.Error("reset from finished did not clear result")
	}
	if h.appends != 1 {
		t.Errorf("expected only the finished attempt to be recorded, got %d", h.appends)
	}
}

func TestStartAfterFinish(t *testing.T) {
	m := newTestMachine(t, staticAcquirer(model.Quiz{}, errors.New("x")), nil)
	mustStart(t, m)
	answer(t, m, 0)

	snap := mustStart(t, m)
	if snap.Phase != PhaseInProgress || snap.Result != nil {
		t.Errorf("restart after finish = %+v", snap)
	}
}

func TestResetDuringAcquisitionDiscardsResult(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	acq := AcquirerFunc(func(ctx context.Context, _ string) (model.Quiz, error) {
		entered <- struct{}{}
		<-release
		return threeQuestionQuiz(), nil
	})
	m := newTestMachine(t, acq, nil)

	done := m.StartAsync(context.Background(), lesson)
	<-entered
	if got := m.Snapshot().Phase; got != PhaseAcquiring {
		t.Fatalf("phase during acquisition = %q", got)
	}
	if _, err := m.Start(context.Background(), lesson); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Start during acquisition = %v, want ErrSessionActive", err)
	}

	m.Reset()
	close(release)

	res, ok := <-done
	if !ok {
		t.Fatal("StartAsync channel closed without a result")
	}
	if !errors.Is(res.Err, ErrAbandoned) {
		t.Errorf("stale start = %v, want ErrAbandoned", res.Err)
	}
	if _, ok := <-done; ok {
		t.Error("StartAsync delivered more than one result")
	}
	if got := m.Snapshot().Phase; got != PhaseNotStarted {
		t.Errorf("stale acquisition changed phase to %q", got)
	}
}

func TestStaleAcquisitionDoesNotOverwriteNewerSession(t *testing.T) {
	first := make(chan struct{})
	entered := make(chan struct{}, 2)
	calls := 0
	acq := AcquirerFunc(func(ctx context.Context, _ string) (model.Quiz, error) {
		calls++
		entered <- struct{}{}
		if calls == 1 {
			<-first
			return model.Quiz{Title: "stale", Questions: []model.QuizQuestion{question("old", 0)}}, nil
		}
		return threeQuestionQuiz(), nil
	})
	m := newTestMachine(t, acq, nil)

	stale := m.StartAsync(context.Background(), lesson)
	<-entered
	m.Reset()

	snap, err := m.Start(context.Background(), lesson)
	<-entered
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}

	close(first)
	res := <-stale
	if !errors.Is(res.Err, ErrAbandoned) {
		t.Errorf("stale start = %v, want ErrAbandoned", res.Err)
	}

	now := m.Snapshot()
	if now.SessionID != snap.SessionID || now.Quiz.Title != "HTML Basics" {
		t.Errorf("newer session overwritten: %+v", now)
	}
}

func TestHistoryFailureStillFinishes(t *testing.T) {
	h := &failingHistory{}
	m := newTestMachine(t, staticAcquirer(model.Quiz{}, errors.New("x")), h)
	mustStart(t, m)
	if _, err := m.SelectAnswer(1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	snap, err := m.Advance(context.Background())
	if !errors.Is(err, ErrRecordAttempt) {
		t.Fatalf("err = %v, want ErrRecordAttempt", err)
	}
	if snap.Phase != PhaseFinished || snap.Result == nil {
		t.Errorf("attempt not finished after history failure: %+v", snap)
	}
	if h.appends != 1 {
		t.Errorf("appends = %d, want 1", h.appends)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := newTestMachine(t, staticAcquirer(threeQuestionQuiz(), nil), nil)
	snap := mustStart(t, m)
	snap.Quiz.Questions[0].CorrectAnswer = 3
	snap.Quiz.Questions[0].Options[0] = "tampered"

	again := m.Snapshot()
	if again.Quiz.Questions[0].CorrectAnswer != 0 || again.Quiz.Questions[0].Options[0] != "a" {
		t.Error("snapshot mutation leaked into the session")
	}
}

type ctxRecordingHistory struct {
	*MemoryHistory
	ctxErr error
}

func (h *ctxRecordingHistory) Append(ctx context.Context, a model.CompletedAttempt) error {
	h.ctxErr = ctx.Err()
	if h.ctxErr != nil {
		return h.ctxErr
	}
	return h.MemoryHistory.Append(ctx, a)
}

func TestAdvanceRecordsDespiteCancelledContext(t *testing.T) {
	h := &ctxRecordingHistory{MemoryHistory: NewMemoryHistory()}
	m := newTestMachine(t, staticAcquirer(model.Quiz{}, errors.New("x")), h)
	mustStart(t, m)
	if _, err := m.SelectAnswer(1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, err := m.Advance(ctx)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if snap.Phase != PhaseFinished {
		t.Fatalf("phase = %q, want finished", snap.Phase)
	}
	if h.ctxErr != nil {
		t.Errorf("history saw cancelled context: %v", h.ctxErr)
	}
	all, _ := h.LoadAll(context.Background())
	if len(all) != 1 {
		t.Errorf("recorded %d attempts, want 1", len(all))
	}
}
