// Package history reconciles stored attempt records with a quiz: picking the
// best attempt for display and, when an attempt's per-question detail was never
// retained, synthesizing a plausible answer set from its aggregate percentage.
package history

import (
	"math"

	"github.com/openclass/quizengine/internal/quiz"
)

// Origin distinguishes genuine recorded answers from synthesized ones. Every
// consumer is forced through this tag; a reconstructed set must never be
// presented as ground truth.
type Origin string

const (
	OriginRecorded      Origin = "recorded"
	OriginReconstructed Origin = "reconstructed"
)

type AnswerSet struct {
	Origin  Origin                `json:"origin"`
	Answers []quiz.QuestionAnswer `json:"answers"`
}

func Recorded(answers []quiz.QuestionAnswer) AnswerSet {
	return AnswerSet{Origin: OriginRecorded, Answers: answers}
}

func Reconstructed(answers []quiz.QuestionAnswer) AnswerSet {
	return AnswerSet{Origin: OriginReconstructed, Answers: answers}
}

// SelectBestAttempt picks the completed attempt with the strictly greatest
// percentage. Ties keep the first encountered, so callers supplying attempts
// in chronological order get the earliest of equal bests. Returns nil when no
// attempt is completed.
func SelectBestAttempt(attempts []quiz.Attempt) *quiz.Attempt {
	var best *quiz.Attempt
	for i := range attempts {
		a := &attempts[i]
		if a.Status != quiz.AttemptCompleted {
			continue
		}
		if best == nil || a.Percentage > best.Percentage {
			best = a
		}
	}
	return best
}

// Placeholder submitted for short-answer questions synthesized as incorrect.
const incorrectTextPlaceholder = "-"

// ReconstructAnswers fabricates a per-question answer set consistent with a
// known aggregate percentage: the first round(pct/100*n) questions in quiz
// order are marked correct with the correct selection and full points, the
// rest incorrect with a wrong selection and zero points. The reconstruction is
// lossy and order-biased; it exists only to render a review screen.
func ReconstructAnswers(q quiz.Quiz, knownPercentage float64) []quiz.QuestionAnswer {
	n := len(q.Questions)
	correctCount := int(math.Round(knownPercentage / 100 * float64(n)))
	if correctCount < 0 {
		correctCount = 0
	}
	if correctCount > n {
		correctCount = n
	}

	answers := make([]quiz.QuestionAnswer, 0, n)
	for i, qq := range q.Questions {
		if i < correctCount {
			answers = append(answers, correctAnswerFor(qq))
		} else {
			answers = append(answers, incorrectAnswerFor(qq))
		}
	}
	return answers
}

func correctAnswerFor(q quiz.Question) quiz.QuestionAnswer {
	yes := true
	qa := quiz.QuestionAnswer{QuestionID: q.ID, IsCorrect: &yes, PointsEarned: q.Points}
	switch q.Type {
	case quiz.TypeShortAnswer:
		qa.Answer = quiz.TextAnswer(q.CorrectAnswer)
	case quiz.TypeMatching:
		// No pairing model yet; leave the selection empty.
	default:
		if opt, ok := q.CorrectOption(); ok {
			qa.Answer = quiz.ChoiceAnswer(opt.ID)
		}
	}
	return qa
}

func incorrectAnswerFor(q quiz.Question) quiz.QuestionAnswer {
	no := false
	qa := quiz.QuestionAnswer{QuestionID: q.ID, IsCorrect: &no}
	switch q.Type {
	case quiz.TypeShortAnswer:
		qa.Answer = quiz.TextAnswer(incorrectTextPlaceholder)
	case quiz.TypeMatching:
	default:
		for _, o := range q.Options {
			if !o.Correct {
				qa.Answer = quiz.ChoiceAnswer(o.ID)
				break
			}
		}
	}
	return qa
}

// ReviewAnswers resolves the answer set to show for a finished attempt:
// genuine detail when the store kept it, a reconstruction from the stored
// percentage otherwise.
func ReviewAnswers(q quiz.Quiz, a quiz.Attempt) AnswerSet {
	if len(a.Answers) > 0 {
		return Recorded(a.Answers)
	}
	return Reconstructed(ReconstructAnswers(q, a.Percentage))
}
