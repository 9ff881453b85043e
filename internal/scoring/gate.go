package scoring

import (
	"fmt"
	"time"

	"github.com/openclass/quizengine/internal/quiz"
)

// Refusal reason codes. A refused start is a rejected operation, never a
// corrupted session.
const (
	ReasonMissingStudent  = "missing_student"
	ReasonAttemptLimit    = "attempt_limit_reached"
	ReasonQuizExpired     = "quiz_expired"
	ReasonNotYetAvailable = "not_yet_available"
)

type RefusalError struct {
	Code    string
	Message string
}

func (e *RefusalError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func Refuse(code, format string, args ...interface{}) *RefusalError {
	return &RefusalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CompletedCount counts finished attempts; it also drives attempt numbering.
func CompletedCount(attempts []quiz.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.Status == quiz.AttemptCompleted {
			n++
		}
	}
	return n
}

// NextAttemptNumber is 1-based per (student, quiz) pair.
func NextAttemptNumber(attempts []quiz.Attempt) int {
	return CompletedCount(attempts) + 1
}

// CanStartAttempt gates a new attempt before any state is mutated. It returns
// nil when a start is allowed, or a *RefusalError naming the reason.
func CanStartAttempt(q quiz.Quiz, attempts []quiz.Attempt, now time.Time) error {
	if ClassifyStatus(q, attempts, now) == StatusExpired {
		return Refuse(ReasonQuizExpired, "quiz %s closed at %s", q.ID, q.AvailableUntil.Format(time.RFC3339))
	}
	if q.AvailableFrom != nil && now.Before(*q.AvailableFrom) {
		return Refuse(ReasonNotYetAvailable, "quiz %s opens at %s", q.ID, q.AvailableFrom.Format(time.RFC3339))
	}
	allowed := q.Config.AttemptsAllowed
	if allowed > 0 && CompletedCount(attempts) >= allowed {
		return Refuse(ReasonAttemptLimit, "quiz %s allows %d attempts", q.ID, allowed)
	}
	return nil
}
