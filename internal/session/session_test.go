package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/openclass/quizengine/internal/quiz"
	"github.com/openclass/quizengine/internal/scoring"
	"github.com/openclass/quizengine/internal/session"
)

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:          "quiz-1",
		Title:       "Unit 3 Check",
		TotalPoints: 20,
		Config:      quiz.Config{PassingScorePercent: 50, AttemptsAllowed: 2},
		Questions: []quiz.Question{
			{
				ID: "q1", Type: quiz.TypeSingleChoice, Points: 10,
				Options: []quiz.Option{{ID: "a"}, {ID: "b", Correct: true}},
			},
			{
				ID: "q2", Type: quiz.TypeSingleChoice, Points: 10,
				Options: []quiz.Option{{ID: "a", Correct: true}, {ID: "b"}},
			},
		},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func startSession(t *testing.T, q quiz.Quiz, prior []quiz.Attempt, opts ...session.Option) *session.Session {
	t.Helper()
	s, err := session.New(q, "student-1", prior, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSession_EndToEnd(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := startSession(t, sampleQuiz(), nil, session.WithClock(fixedClock(now)))

	if s.State() != session.StateInProgress {
		t.Fatalf("state = %v, want in_progress", s.State())
	}
	if err := s.Record("q1", quiz.ChoiceAnswer("b")); err != nil { // correct
		t.Fatalf("Record q1: %v", err)
	}
	if err := s.Record("q2", quiz.ChoiceAnswer("b")); err != nil { // incorrect
		t.Fatalf("Record q2: %v", err)
	}
	if err := s.RequestSubmit(); err != nil {
		t.Fatalf("RequestSubmit: %v", err)
	}
	a, err := s.ConfirmSubmit()
	if err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}
	if a.Score != 10 || a.Percentage != 50.0 || !a.Passed {
		t.Fatalf("got score=%v percentage=%v passed=%v, want 10/50.0/true", a.Score, a.Percentage, a.Passed)
	}
	if a.Status != quiz.AttemptCompleted || a.AttemptNumber != 1 {
		t.Fatalf("got status=%v number=%d", a.Status, a.AttemptNumber)
	}
	if len(a.Answers) != 2 {
		t.Fatalf("want one QuestionAnswer per question, got %d", len(a.Answers))
	}
	for _, qa := range a.Answers {
		if qa.IsCorrect == nil {
			t.Fatalf("answer %s not graded", qa.QuestionID)
		}
	}
}

func TestSession_ConfirmRequiresRequest(t *testing.T) {
	s := startSession(t, sampleQuiz(), nil)
	if _, err := s.ConfirmSubmit(); !errors.Is(err, session.ErrNoPendingSubmit) {
		t.Fatalf("want ErrNoPendingSubmit, got %v", err)
	}
}

func TestSession_RecordWithdrawsPendingSubmit(t *testing.T) {
	s := startSession(t, sampleQuiz(), nil)
	if err := s.RequestSubmit(); err != nil {
		t.Fatalf("RequestSubmit: %v", err)
	}
	if err := s.Record("q1", quiz.ChoiceAnswer("a")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := s.ConfirmSubmit(); !errors.Is(err, session.ErrNoPendingSubmit) {
		t.Fatalf("editing an answer should withdraw the pending submit, got %v", err)
	}
}

func TestSession_RecordOverwrites(t *testing.T) {
	s := startSession(t, sampleQuiz(), nil)
	if err := s.Record("q1", quiz.ChoiceAnswer("a")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record("q1", quiz.ChoiceAnswer("b")); err != nil {
		t.Fatalf("Record overwrite: %v", err)
	}
	if err := s.RequestSubmit(); err != nil {
		t.Fatalf("RequestSubmit: %v", err)
	}
	a, err := s.ConfirmSubmit()
	if err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}
	if a.Score != 10 {
		t.Fatalf("last recorded answer should win, score = %v", a.Score)
	}
}

func TestSession_RecordUnknownQuestion(t *testing.T) {
	s := startSession(t, sampleQuiz(), nil)
	if err := s.Record("nope", quiz.ChoiceAnswer("a")); !errors.Is(err, session.ErrUnknownQuestion) {
		t.Fatalf("want ErrUnknownQuestion, got %v", err)
	}
}

func TestSession_Navigation(t *testing.T) {
	s := startSession(t, sampleQuiz(), nil)

	idx, q, err := s.Current()
	if err != nil || idx != 0 || q.ID != "q1" {
		t.Fatalf("Current = (%d, %s, %v), want (0, q1, nil)", idx, q.ID, err)
	}
	if err := s.Previous(); err != nil {
		t.Fatalf("Previous at start should clamp, got %v", err)
	}
	if idx, _, _ = s.Current(); idx != 0 {
		t.Fatalf("pointer moved below 0: %d", idx)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next at end should clamp, got %v", err)
	}
	if idx, _, _ = s.Current(); idx != 1 {
		t.Fatalf("pointer = %d, want 1", idx)
	}
	if err := s.Jump(0); err != nil {
		t.Fatalf("Jump: %v", err)
	}
	if err := s.Jump(5); !errors.Is(err, session.ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", err)
	}
}

func TestSession_Cancel(t *testing.T) {
	s := startSession(t, sampleQuiz(), nil)
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if s.State() != session.StateAbandoned {
		t.Fatalf("state = %v, want abandoned", s.State())
	}
	if err := s.Record("q1", quiz.ChoiceAnswer("a")); !errors.Is(err, session.ErrNotInProgress) {
		t.Fatalf("abandoned session must refuse mutation, got %v", err)
	}
}

func TestSession_RefusedPreconditions(t *testing.T) {
	q := sampleQuiz()

	t.Run("missing student id", func(t *testing.T) {
		_, err := session.New(q, "", nil)
		var ref *scoring.RefusalError
		if !errors.As(err, &ref) || ref.Code != scoring.ReasonMissingStudent {
			t.Fatalf("want missing_student refusal, got %v", err)
		}
	})

	t.Run("attempt limit", func(t *testing.T) {
		prior := []quiz.Attempt{
			{Status: quiz.AttemptCompleted}, {Status: quiz.AttemptCompleted},
		}
		_, err := session.New(q, "student-1", prior)
		var ref *scoring.RefusalError
		if !errors.As(err, &ref) || ref.Code != scoring.ReasonAttemptLimit {
			t.Fatalf("want attempt_limit_reached refusal, got %v", err)
		}
	})

	t.Run("attempt number increments", func(t *testing.T) {
		prior := []quiz.Attempt{{Status: quiz.AttemptCompleted}}
		s, err := session.New(q, "student-1", prior)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got := s.Snapshot().AttemptNumber; got != 2 {
			t.Fatalf("AttemptNumber = %d, want 2", got)
		}
	})
}

func TestSession_EmptyQuiz(t *testing.T) {
	q := quiz.Quiz{ID: "empty", Config: quiz.Config{PassingScorePercent: 50}}
	s := startSession(t, q, nil)
	if _, _, err := s.Current(); !errors.Is(err, session.ErrOutOfRange) {
		t.Fatalf("Current on empty quiz: want ErrOutOfRange, got %v", err)
	}
	if err := s.RequestSubmit(); err != nil {
		t.Fatalf("RequestSubmit: %v", err)
	}
	a, err := s.ConfirmSubmit()
	if err != nil {
		t.Fatalf("ConfirmSubmit: %v", err)
	}
	if a.Score != 0 || a.Percentage != 0 || a.Passed {
		t.Fatalf("empty quiz attempt = %+v, want 0/0/not passed", a)
	}
}

func TestManager_OneSessionPerStudentQuiz(t *testing.T) {
	m := session.NewManager(nil)
	q := sampleQuiz()

	s1, err := m.Start(q, "student-1", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	s2, err := m.Start(q, "student-1", nil)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("second start must re-join the live session")
	}
	other, err := m.Start(q, "student-2", nil)
	if err != nil {
		t.Fatalf("Start for other student: %v", err)
	}
	if other == s1 {
		t.Fatalf("students must not share sessions")
	}
}

func TestManager_ConfirmPersistsAndEvicts(t *testing.T) {
	var saved []quiz.Attempt
	m := session.NewManager(func(a quiz.Attempt) error {
		saved = append(saved, a)
		return nil
	})
	q := sampleQuiz()

	s, err := m.Start(q, "student-1", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Record("q1", quiz.ChoiceAnswer("b")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.RequestSubmit(); err != nil {
		t.Fatalf("RequestSubmit: %v", err)
	}
	a, err := m.Confirm(s.ID())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != a.ID {
		t.Fatalf("attempt not persisted")
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("confirmed session should be evicted, got %v", err)
	}
}

func TestManager_CancelDiscards(t *testing.T) {
	var saved int
	m := session.NewManager(func(quiz.Attempt) error { saved++; return nil })

	s, err := m.Start(sampleQuiz(), "student-1", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Cancel(s.ID()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if saved != 0 {
		t.Fatalf("abandoned attempts must not be persisted")
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("cancelled session should be evicted, got %v", err)
	}
}
