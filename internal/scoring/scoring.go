package scoring

import (
	"math"

	"github.com/openclass/quizengine/internal/quiz"
)

// Outcome is the aggregate result of a finished attempt.
type Outcome struct {
	Score      float64
	Percentage float64
	Passed     bool
}

// Finalize sums earned points and derives percentage and pass verdict.
// A quiz with zero total points yields percentage 0 rather than a division
// fault; exact equality with the passing threshold passes.
func Finalize(q quiz.Quiz, answers []quiz.QuestionAnswer) Outcome {
	var score float64
	for _, a := range answers {
		score += a.PointsEarned
	}
	pct := Percentage(score, q.TotalPoints)
	return Outcome{
		Score:      score,
		Percentage: pct,
		Passed:     pct >= q.Config.PassingScorePercent,
	}
}

// Percentage converts earned/total points to a percentage rounded to one
// decimal place.
func Percentage(score, totalPoints float64) float64 {
	if totalPoints <= 0 {
		return 0
	}
	return math.Round(score/totalPoints*1000) / 10
}
