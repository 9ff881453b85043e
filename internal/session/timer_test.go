package session

import (
	"testing"
	"time"

	"github.com/openclass/quizengine/internal/quiz"
)

func timedQuiz(minutes int) quiz.Quiz {
	return quiz.Quiz{
		ID:          "timed",
		TotalPoints: 10,
		Config:      quiz.Config{TimeLimitMinutes: minutes, PassingScorePercent: 50},
		Questions: []quiz.Question{
			{ID: "q1", Type: quiz.TypeSingleChoice, Points: 10,
				Options: []quiz.Option{{ID: "a", Correct: true}, {ID: "b"}}},
		},
	}
}

// movableClock lets tests walk the wall clock past the deadline and drive
// tick by hand, so no test ever sleeps.
type movableClock struct{ t time.Time }

func (c *movableClock) now() time.Time          { return c.t }
func (c *movableClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTick_BeforeDeadlineIsNoop(t *testing.T) {
	clk := &movableClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	s, err := New(timedQuiz(30), "student-1", nil, WithClock(clk.now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	clk.advance(29 * time.Minute)
	s.tick()
	if s.State() != StateInProgress {
		t.Fatalf("state = %v, want in_progress before the deadline", s.State())
	}
	if secs, ok := s.Remaining(); !ok || secs != 60 {
		t.Fatalf("Remaining = (%d, %v), want (60, true)", secs, ok)
	}
}

func TestTick_DeadlineAutoSubmits(t *testing.T) {
	clk := &movableClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	var delivered *quiz.Attempt
	s, err := New(timedQuiz(30), "student-1", nil,
		WithClock(clk.now),
		WithAutoSubmit(func(a quiz.Attempt) { delivered = &a }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	if err := s.Record("q1", quiz.ChoiceAnswer("a")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	clk.advance(31 * time.Minute)
	s.tick()

	if s.State() != StateCompleted {
		t.Fatalf("state = %v, want completed after timeout", s.State())
	}
	if delivered == nil {
		t.Fatalf("auto-submit callback not invoked")
	}
	if delivered.Score != 10 || delivered.Percentage != 100.0 || !delivered.Passed {
		t.Fatalf("timed-out attempt graded with recorded answers: %+v", delivered)
	}
	if delivered.TimeSpentMinutes != 31 {
		t.Fatalf("TimeSpentMinutes = %d, want 31", delivered.TimeSpentMinutes)
	}
	if s.timer != nil {
		t.Fatalf("countdown must be released after auto-submit")
	}
}

func TestTick_AfterManualSubmitIsInert(t *testing.T) {
	clk := &movableClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	fired := 0
	s, err := New(timedQuiz(30), "student-1", nil,
		WithClock(clk.now),
		WithAutoSubmit(func(quiz.Attempt) { fired++ }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.RequestSubmit(); err != nil {
		t.Fatalf("RequestSubmit: %v", err)
	}
	if _, err := s.ConfirmSubmit(); err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}
	if s.timer != nil {
		t.Fatalf("countdown must be released on manual submit")
	}

	clk.advance(2 * time.Hour)
	s.tick()
	if fired != 0 {
		t.Fatalf("auto-submit fired %d times after completion", fired)
	}
}

func TestTick_CancelReleasesTimer(t *testing.T) {
	clk := &movableClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	s, err := New(timedQuiz(30), "student-1", nil, WithClock(clk.now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if s.timer != nil {
		t.Fatalf("countdown must be released on cancel")
	}
}

func TestResume_KeepsOriginalCountdown(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := &movableClock{t: started.Add(10 * time.Minute)}

	prior := quiz.Attempt{
		ID: "att-1", QuizID: "timed", StudentID: "student-1", AttemptNumber: 1,
		Status: quiz.AttemptInProgress, StartedAt: started,
		Answers: []quiz.QuestionAnswer{{QuestionID: "q1", Answer: quiz.ChoiceAnswer("a")}},
	}
	s, err := Resume(timedQuiz(30), prior, WithClock(clk.now))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	if secs, ok := s.Remaining(); !ok || secs != 20*60 {
		t.Fatalf("Remaining = (%d, %v), want (%d, true)", secs, ok, 20*60)
	}
	// Prior answers are editable again.
	if err := s.Record("q1", quiz.ChoiceAnswer("b")); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestResume_ExhaustedCountdownSubmitsOnStart(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := &movableClock{t: started.Add(45 * time.Minute)}
	var delivered *quiz.Attempt

	prior := quiz.Attempt{
		ID: "att-1", QuizID: "timed", StudentID: "student-1", AttemptNumber: 1,
		Status: quiz.AttemptInProgress, StartedAt: started,
		Answers: []quiz.QuestionAnswer{{QuestionID: "q1", Answer: quiz.ChoiceAnswer("a")}},
	}
	s, err := Resume(timedQuiz(30), prior,
		WithClock(clk.now),
		WithAutoSubmit(func(a quiz.Attempt) { delivered = &a }),
	)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != StateCompleted {
		t.Fatalf("state = %v, want completed for an exhausted countdown", s.State())
	}
	if delivered == nil || delivered.Score != 10 {
		t.Fatalf("recorded answers must still grade on late submit, got %+v", delivered)
	}
}

func TestResume_RejectsFinishedAttempt(t *testing.T) {
	prior := quiz.Attempt{ID: "att-1", Status: quiz.AttemptCompleted}
	if _, err := Resume(timedQuiz(30), prior); err != ErrNotResumable {
		t.Fatalf("want ErrNotResumable, got %v", err)
	}
}
