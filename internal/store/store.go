// Package store is the attempt/quiz persistence boundary. The engine packages
// never touch it directly; finished attempts arrive here through the session
// manager and history is read back for reconciliation and summaries.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/openclass/quizengine/internal/quiz"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")
)

type ListOpts struct {
	Limit  int
	Offset int
}

type Store interface {
	PutQuiz(ctx context.Context, q quiz.Quiz) error
	GetQuiz(ctx context.Context, id string) (quiz.Quiz, error)
	ListQuizzes(ctx context.Context, opts ListOpts) ([]quiz.Quiz, error)

	SaveAttempt(ctx context.Context, a quiz.Attempt) error
	GetAttempt(ctx context.Context, id string) (quiz.Attempt, error)
	// ListAttempts returns a student's attempts for a quiz in start order, the
	// ordering the reconciler's first-wins tie-break relies on.
	ListAttempts(ctx context.Context, quizID, studentID string) ([]quiz.Attempt, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]quiz.Quiz
	attempts map[string]quiz.Attempt
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]quiz.Quiz{},
		attempts: map[string]quiz.Attempt{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, q quiz.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.TotalPoints = q.SumPoints()
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return quiz.Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, opts ListOpts) ([]quiz.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]quiz.Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

func (m *memoryStore) SaveAttempt(_ context.Context, a quiz.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (quiz.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return quiz.Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, quizID, studentID string) ([]quiz.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []quiz.Attempt
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].AttemptNumber < out[j].AttemptNumber
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func paginate(in []quiz.Quiz, opts ListOpts) []quiz.Quiz {
	if opts.Offset > 0 {
		if opts.Offset >= len(in) {
			return nil
		}
		in = in[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}
