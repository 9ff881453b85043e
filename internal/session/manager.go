package session

import (
	"errors"
	"sync"

	"github.com/openclass/quizengine/internal/quiz"
)

var ErrSessionNotFound = errors.New("session: no such session")

// Persist receives every finalized attempt (manual or timed out) for storage.
type Persist func(quiz.Attempt) error

// Manager holds the live sessions of a process and guarantees at most one
// in-progress session per (student, quiz) pair: a second start for the same
// pair hands back the existing session instead of forking a new attempt.
type Manager struct {
	mu      sync.Mutex
	byID    map[string]*Session
	byPair  map[string]*Session
	persist Persist
	opts    []Option
}

func NewManager(persist Persist, opts ...Option) *Manager {
	return &Manager{
		byID:    map[string]*Session{},
		byPair:  map[string]*Session{},
		persist: persist,
		opts:    opts,
	}
}

func pairKey(studentID, quizID string) string { return studentID + "|" + quizID }

// Start creates (or re-joins) the in-progress session for a student and quiz.
func (m *Manager) Start(q quiz.Quiz, studentID string, prior []quiz.Attempt) (*Session, error) {
	return m.register(pairKey(studentID, q.ID), func() (*Session, error) {
		return New(q, studentID, prior, m.opts...)
	})
}

// ResumeAttempt re-enters a previously stored in-progress attempt.
func (m *Manager) ResumeAttempt(q quiz.Quiz, a quiz.Attempt) (*Session, error) {
	return m.register(pairKey(a.StudentID, q.ID), func() (*Session, error) {
		return Resume(q, a, m.opts...)
	})
}

func (m *Manager) register(key string, build func() (*Session, error)) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.byPair[key]; ok && s.State() == StateInProgress {
		m.mu.Unlock()
		return s, nil
	}
	s, err := build()
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	// Auto-submit persists and evicts exactly like a confirmed manual submit.
	WithAutoSubmit(func(done quiz.Attempt) {
		if m.persist != nil {
			_ = m.persist(done)
		}
		m.evict(s)
	})(s)
	m.byID[s.ID()] = s
	m.byPair[key] = s
	m.mu.Unlock()

	// Outside the registry lock: starting a resumed session whose countdown is
	// already exhausted finalizes synchronously, which re-enters evict.
	if err := s.Start(); err != nil {
		m.evict(s)
		return nil, err
	}
	return s, nil
}

func (m *Manager) Get(attemptID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[attemptID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Confirm completes the two-step submit, persists the attempt, and drops the
// session from the registry.
func (m *Manager) Confirm(attemptID string) (quiz.Attempt, error) {
	s, err := m.Get(attemptID)
	if err != nil {
		return quiz.Attempt{}, err
	}
	a, err := s.ConfirmSubmit()
	if err != nil {
		return quiz.Attempt{}, err
	}
	if m.persist != nil {
		if err := m.persist(a); err != nil {
			return quiz.Attempt{}, err
		}
	}
	m.evict(s)
	return a, nil
}

// Cancel abandons the session. Abandoned attempts are discarded, not persisted.
func (m *Manager) Cancel(attemptID string) error {
	s, err := m.Get(attemptID)
	if err != nil {
		return err
	}
	if err := s.Cancel(); err != nil {
		return err
	}
	m.evict(s)
	return nil
}

func (m *Manager) evict(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, s.ID())
	if cur, ok := m.byPair[pairKey(s.StudentID(), s.QuizID())]; ok && cur == s {
		delete(m.byPair, pairKey(s.StudentID(), s.QuizID()))
	}
}
