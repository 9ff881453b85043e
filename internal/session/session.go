// Package session drives one in-progress quiz attempt: question navigation,
// answer capture, the countdown timer, and the submit/abandon transitions.
// All grading and aggregation is delegated to the grading and scoring packages
// once the attempt leaves the in-progress state.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclass/quizengine/internal/grading"
	"github.com/openclass/quizengine/internal/quiz"
	"github.com/openclass/quizengine/internal/scoring"
)

type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

var (
	ErrNotInProgress   = errors.New("session: attempt not in progress")
	ErrAlreadyStarted  = errors.New("session: already started")
	ErrNoPendingSubmit = errors.New("session: submit was not requested")
	ErrUnknownQuestion = errors.New("session: unknown question id")
	ErrOutOfRange      = errors.New("session: question index out of range")
	ErrNotResumable    = errors.New("session: attempt is not resumable")
)

type Option func(*Session)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

func WithChecker(c *grading.Checker) Option { return func(s *Session) { s.checker = c } }

// WithAutoSubmit registers a callback invoked with the finalized attempt when
// the countdown expires. Manual submission does not invoke it.
func WithAutoSubmit(fn func(quiz.Attempt)) Option {
	return func(s *Session) { s.onAutoSubmit = fn }
}

// Session owns exactly one attempt. All exported methods are safe for
// concurrent use; the timer goroutine is the only other mutator.
type Session struct {
	mu sync.Mutex

	quiz    quiz.Quiz
	attempt quiz.Attempt
	answers map[string]quiz.Answer
	current int
	state   State

	deadline   time.Time // zero when untimed
	confirming bool

	now          func() time.Time
	checker      *grading.Checker
	onAutoSubmit func(quiz.Attempt)
	timer        *countdown
}

// New validates the start preconditions against the prior attempt history and
// builds an idle session. Nothing is mutated on refusal.
func New(q quiz.Quiz, studentID string, prior []quiz.Attempt, opts ...Option) (*Session, error) {
	s := &Session{
		quiz:    q,
		answers: map[string]quiz.Answer{},
		state:   StateIdle,
		now:     time.Now,
		checker: grading.NewChecker(),
	}
	for _, o := range opts {
		o(s)
	}
	if studentID == "" {
		return nil, scoring.Refuse(scoring.ReasonMissingStudent, "no current student id")
	}
	if err := scoring.CanStartAttempt(q, prior, s.now()); err != nil {
		return nil, err
	}
	s.attempt = quiz.Attempt{
		ID:            uuid.NewString(),
		QuizID:        q.ID,
		StudentID:     studentID,
		AttemptNumber: scoring.NextAttemptNumber(prior),
		Status:        quiz.AttemptInProgress,
	}
	return s, nil
}

// Resume rebuilds a session around a prior in-progress attempt. The original
// start time is kept, so a timed quiz resumes with whatever is left of its
// countdown; an already-exhausted countdown submits on Start.
func Resume(q quiz.Quiz, a quiz.Attempt, opts ...Option) (*Session, error) {
	if a.Status != quiz.AttemptInProgress {
		return nil, ErrNotResumable
	}
	s := &Session{
		quiz:    q,
		attempt: a,
		answers: map[string]quiz.Answer{},
		state:   StateIdle,
		now:     time.Now,
		checker: grading.NewChecker(),
	}
	for _, o := range opts {
		o(s)
	}
	for _, qa := range a.Answers {
		if !qa.Answer.IsEmpty() {
			s.answers[qa.QuestionID] = qa.Answer
		}
	}
	return s, nil
}

// Start enters InProgress and arms the countdown for timed quizzes.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.attempt.StartedAt.IsZero() {
		s.attempt.StartedAt = s.now()
	}
	s.state = StateInProgress
	if limit := s.quiz.Config.TimeLimitMinutes; limit > 0 {
		s.deadline = s.attempt.StartedAt.Add(time.Duration(limit) * time.Minute)
		s.timer = startCountdown(time.Second, s.tick)
	}
	s.mu.Unlock()

	// A resumed attempt may already be out of time.
	s.tick()
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ID() string        { return s.attempt.ID }
func (s *Session) StudentID() string { return s.attempt.StudentID }
func (s *Session) QuizID() string    { return s.quiz.ID }

// Remaining reports seconds left on the countdown. Untimed sessions report
// ok=false.
func (s *Session) Remaining() (secs int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deadline.IsZero() {
		return 0, false
	}
	left := s.deadline.Sub(s.now())
	if left < 0 {
		left = 0
	}
	return int(left / time.Second), true
}

// Current returns the question under the pointer.
func (s *Session) Current() (int, quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.quiz.Questions) == 0 {
		return 0, quiz.Question{}, ErrOutOfRange
	}
	return s.current, s.quiz.Questions[s.current], nil
}

// Next and Previous clamp at the ends; Jump to an invalid index is an error.
func (s *Session) Next() error     { return s.move(+1) }
func (s *Session) Previous() error { return s.move(-1) }

func (s *Session) move(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	next := s.current + delta
	if next < 0 {
		next = 0
	}
	if max := len(s.quiz.Questions) - 1; next > max {
		next = max
	}
	if next >= 0 {
		s.current = next
	}
	return nil
}

func (s *Session) Jump(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		return ErrOutOfRange
	}
	s.current = index
	return nil
}

// Record upserts the answer for a question. Nothing is graded or locked before
// submission, so re-answering simply overwrites. Recording withdraws a pending
// submit confirmation.
func (s *Session) Record(questionID string, ans quiz.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if !s.hasQuestion(questionID) {
		return ErrUnknownQuestion
	}
	s.answers[questionID] = ans
	s.confirming = false
	return nil
}

// Question looks up a quiz question by id, for callers that must parse a raw
// submission into the right answer shape before recording it.
func (s *Session) Question(id string) (quiz.Question, bool) {
	for _, q := range s.quiz.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return quiz.Question{}, false
}

func (s *Session) hasQuestion(id string) bool {
	for _, q := range s.quiz.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// RequestSubmit is the first half of the two-step commit.
func (s *Session) RequestSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	s.confirming = true
	return nil
}

// ConfirmSubmit finalizes the attempt. It fails unless RequestSubmit was
// called and not withdrawn since.
func (s *Session) ConfirmSubmit() (quiz.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return quiz.Attempt{}, ErrNotInProgress
	}
	if !s.confirming {
		return quiz.Attempt{}, ErrNoPendingSubmit
	}
	return s.finalizeLocked(), nil
}

// Cancel abandons the attempt and discards everything captured so far.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	s.stopTimerLocked()
	s.state = StateAbandoned
	s.attempt.Status = quiz.AttemptAbandoned
	return nil
}

// Close releases the timer on teardown. It does not change attempt state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// Snapshot renders the attempt as it stands: graded for finished sessions,
// ungraded captured answers for in-progress ones.
func (s *Session) Snapshot() quiz.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.attempt
	if s.state == StateInProgress || s.state == StateIdle {
		a.Answers = s.collectLocked(false)
	}
	return a
}

// tick runs once per second on timed sessions and is the only spontaneous
// transition source. The finalized attempt is delivered outside the lock.
func (s *Session) tick() {
	s.mu.Lock()
	if s.state != StateInProgress || s.deadline.IsZero() || s.now().Before(s.deadline) {
		s.mu.Unlock()
		return
	}
	done := s.finalizeLocked()
	cb := s.onAutoSubmit
	s.mu.Unlock()

	if cb != nil {
		cb(done)
	}
}

func (s *Session) finalizeLocked() quiz.Attempt {
	s.stopTimerLocked()

	now := s.now()
	s.attempt.CompletedAt = &now
	s.attempt.TimeSpentMinutes = int(now.Sub(s.attempt.StartedAt) / time.Minute)
	s.attempt.Answers = s.collectLocked(true)

	out := scoring.Finalize(s.quiz, s.attempt.Answers)
	s.attempt.Score = out.Score
	s.attempt.Percentage = out.Percentage
	s.attempt.Passed = out.Passed
	s.attempt.Status = quiz.AttemptCompleted
	s.state = StateCompleted
	s.confirming = false
	return s.attempt
}

// collectLocked builds one QuestionAnswer per question in quiz order,
// optionally grading each through the checker.
func (s *Session) collectLocked(grade bool) []quiz.QuestionAnswer {
	answers := make([]quiz.QuestionAnswer, 0, len(s.quiz.Questions))
	for _, q := range s.quiz.Questions {
		qa := quiz.QuestionAnswer{QuestionID: q.ID, Answer: s.answers[q.ID]}
		if grade {
			res := s.checker.Check(q, qa.Answer)
			qa.IsCorrect = &res.IsCorrect
			qa.PointsEarned = res.PointsEarned
		}
		answers = append(answers, qa)
	}
	return answers
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.stop()
		s.timer = nil
	}
}
