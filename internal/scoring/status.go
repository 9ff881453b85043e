package scoring

import (
	"time"

	"github.com/openclass/quizengine/internal/quiz"
)

// Status is the display classification of a quiz for one student, derived on
// every read from the availability window and the attempt history.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

// ClassifyStatus orders its rules so a finished attempt always outranks an
// expired window: work the student completed stays "completed" forever.
func ClassifyStatus(q quiz.Quiz, attempts []quiz.Attempt, now time.Time) Status {
	completed := hasStatus(attempts, quiz.AttemptCompleted)
	if q.AvailableUntil != nil && now.After(*q.AvailableUntil) {
		if completed {
			return StatusCompleted
		}
		return StatusExpired
	}
	if q.AvailableFrom != nil && now.Before(*q.AvailableFrom) {
		return StatusNotStarted
	}
	if completed {
		return StatusCompleted
	}
	if hasStatus(attempts, quiz.AttemptInProgress) {
		return StatusInProgress
	}
	return StatusNotStarted
}

func hasStatus(attempts []quiz.Attempt, s quiz.AttemptStatus) bool {
	for _, a := range attempts {
		if a.Status == s {
			return true
		}
	}
	return false
}

// Urgency is a presentation bucket for upcoming deadlines. It is recomputed on
// each read and never persisted.
type Urgency string

const (
	UrgencyUrgent    Urgency = "urgent"   // less than 24h remaining
	UrgencyUpcoming  Urgency = "upcoming" // less than 7 days remaining
	UrgencyAvailable Urgency = "available"
)

func ClassifyUrgency(q quiz.Quiz, now time.Time) Urgency {
	if q.AvailableUntil == nil || now.After(*q.AvailableUntil) {
		return UrgencyAvailable
	}
	remaining := q.AvailableUntil.Sub(now)
	switch {
	case remaining < 24*time.Hour:
		return UrgencyUrgent
	case remaining < 7*24*time.Hour:
		return UrgencyUpcoming
	default:
		return UrgencyAvailable
	}
}
