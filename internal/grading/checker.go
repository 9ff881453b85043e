package grading

import (
	"strings"

	"github.com/openclass/quizengine/internal/quiz"
)

// Result is the outcome of checking a single answer.
type Result struct {
	IsCorrect    bool
	PointsEarned float64
}

// Strategy checks one question type.
type Strategy interface {
	Check(q quiz.Question, ans quiz.Answer) Result
}

// Checker routes by question type to the correct Strategy. Scoring is
// all-or-nothing: a strategy awards the question's full point value or zero.
type Checker struct {
	strategies map[quiz.QuestionType]Strategy
}

func NewChecker() *Checker {
	return &Checker{
		strategies: map[quiz.QuestionType]Strategy{
			quiz.TypeSingleChoice: choiceStrategy{},
			quiz.TypeTrueFalse:    choiceStrategy{},
			quiz.TypeShortAnswer:  shortAnswerStrategy{},
			quiz.TypeMatching:     matchingStrategy{},
		},
	}
}

// Check grades a submitted answer. An absent or empty answer is incorrect with
// zero points; so is a question type with no installed strategy.
func (c *Checker) Check(q quiz.Question, ans quiz.Answer) Result {
	if ans.IsEmpty() {
		return Result{}
	}
	s, ok := c.strategies[q.Type]
	if !ok {
		return Result{}
	}
	return s.Check(q, ans)
}

type choiceStrategy struct{}

func (choiceStrategy) Check(q quiz.Question, ans quiz.Answer) Result {
	sel, ok := ans.OptionID()
	if !ok {
		return Result{}
	}
	correct, ok := q.CorrectOption()
	if !ok {
		return Result{}
	}
	if sel == correct.ID {
		return Result{IsCorrect: true, PointsEarned: q.Points}
	}
	return Result{}
}

type shortAnswerStrategy struct{}

func (shortAnswerStrategy) Check(q quiz.Question, ans quiz.Answer) Result {
	text, ok := ans.Text()
	if !ok || q.CorrectAnswer == "" {
		return Result{}
	}
	if strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(q.CorrectAnswer)) {
		return Result{IsCorrect: true, PointsEarned: q.Points}
	}
	return Result{}
}

// matchingStrategy is a placeholder: no pairing comparison is defined yet, so a
// matching submission never earns points.
// TODO: define pair comparison once authoring emits left/right pair ids.
type matchingStrategy struct{}

func (matchingStrategy) Check(quiz.Question, quiz.Answer) Result { return Result{} }
