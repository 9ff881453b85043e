// Package summary maps engine state into the read-only views consumed by
// listing and dashboard UIs. Everything here is a plain projection; nothing is
// stored.
package summary

import (
	"math"
	"time"

	"github.com/openclass/quizengine/internal/history"
	"github.com/openclass/quizengine/internal/quiz"
	"github.com/openclass/quizengine/internal/scoring"
)

type QuizSummary struct {
	QuizID          string          `json:"quiz_id"`
	Title           string          `json:"title"`
	Status          scoring.Status  `json:"status"`
	AttemptsUsed    int             `json:"attempts_used"`
	AttemptsAllowed int             `json:"attempts_allowed,omitempty"`
	BestScore       *float64        `json:"best_score,omitempty"` // percentage of the best attempt
	TimeRemaining   scoring.Urgency `json:"time_remaining"`
}

func ProjectSummary(q quiz.Quiz, attempts []quiz.Attempt, now time.Time) QuizSummary {
	s := QuizSummary{
		QuizID:          q.ID,
		Title:           q.Title,
		Status:          scoring.ClassifyStatus(q, attempts, now),
		AttemptsUsed:    scoring.CompletedCount(attempts),
		AttemptsAllowed: q.Config.AttemptsAllowed,
		TimeRemaining:   scoring.ClassifyUrgency(q, now),
	}
	if best := history.SelectBestAttempt(attempts); best != nil {
		pct := best.Percentage
		s.BestScore = &pct
	}
	return s
}

type DashboardStats struct {
	TotalPending   int     `json:"total_pending"`
	TotalCompleted int     `json:"total_completed"`
	AverageScore   float64 `json:"average_score"`
	UrgentCount    int     `json:"urgent_count"`
	UpcomingCount  int     `json:"upcoming_count"`
}

// Aggregate reduces per-quiz summaries into dashboard totals. AverageScore is
// the mean best percentage over quizzes that have one, rounded to one decimal.
// Urgency counts cover only quizzes still awaiting work.
func Aggregate(summaries []QuizSummary) DashboardStats {
	var stats DashboardStats
	var scoreSum float64
	var scored int
	for _, s := range summaries {
		switch s.Status {
		case scoring.StatusCompleted:
			stats.TotalCompleted++
		case scoring.StatusNotStarted, scoring.StatusInProgress:
			stats.TotalPending++
			switch s.TimeRemaining {
			case scoring.UrgencyUrgent:
				stats.UrgentCount++
			case scoring.UrgencyUpcoming:
				stats.UpcomingCount++
			}
		}
		if s.BestScore != nil {
			scoreSum += *s.BestScore
			scored++
		}
	}
	if scored > 0 {
		stats.AverageScore = math.Round(scoreSum/float64(scored)*10) / 10
	}
	return stats
}
