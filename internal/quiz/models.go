package quiz

import "time"

type QuestionType string

const (
	TypeSingleChoice QuestionType = "single_choice"
	TypeTrueFalse    QuestionType = "true_false"
	TypeShortAnswer  QuestionType = "short_answer"
	TypeMatching     QuestionType = "matching"
)

type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt,omitempty"`
	Points        float64      `json:"points"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"` // canonical text for short_answer
	Explanation   string       `json:"explanation,omitempty"`
}

// CorrectOption returns the first option flagged correct. Authoring is expected
// to flag exactly one; extra flags are ignored beyond the first.
func (q Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.Correct {
			return o, true
		}
	}
	return Option{}, false
}

type Config struct {
	TimeLimitMinutes    int     `json:"time_limit_minutes,omitempty"` // 0 = untimed
	AttemptsAllowed     int     `json:"attempts_allowed,omitempty"`   // 0 = unlimited
	ShuffleQuestions    bool    `json:"shuffle_questions,omitempty"`
	ShuffleOptions      bool    `json:"shuffle_options,omitempty"`
	ShowCorrectAnswers  bool    `json:"show_correct_answers,omitempty"`
	PassingScorePercent float64 `json:"passing_score_percent,omitempty"`
}

type Quiz struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Questions      []Question `json:"questions"`
	TotalPoints    float64    `json:"total_points"`
	Config         Config     `json:"config"`
	AvailableFrom  *time.Time `json:"available_from,omitempty"`
	AvailableUntil *time.Time `json:"available_until,omitempty"`
}

// SumPoints recomputes the point total from the question list. Stores call this
// on write so TotalPoints never drifts from the questions.
func (q Quiz) SumPoints() float64 {
	var sum float64
	for _, qq := range q.Questions {
		sum += qq.Points
	}
	return sum
}

// Sanitized returns a copy safe to serve to test-takers: correct flags and
// canonical answers stripped (parity with answer-key stripping on exam fetch).
func (q Quiz) Sanitized() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		cp := qq
		cp.CorrectAnswer = ""
		cp.Explanation = ""
		cp.Options = make([]Option, len(qq.Options))
		for j, o := range qq.Options {
			cp.Options[j] = Option{ID: o.ID, Text: o.Text}
		}
		out.Questions[i] = cp
	}
	return out
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

type QuestionAnswer struct {
	QuestionID   string  `json:"question_id"`
	Answer       Answer  `json:"answer"`
	IsCorrect    *bool   `json:"is_correct,omitempty"` // nil until graded
	PointsEarned float64 `json:"points_earned"`
}

type Attempt struct {
	ID               string           `json:"id"`
	QuizID           string           `json:"quiz_id"`
	StudentID        string           `json:"student_id"`
	AttemptNumber    int              `json:"attempt_number"`
	Status           AttemptStatus    `json:"status"`
	Answers          []QuestionAnswer `json:"answers,omitempty"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	TimeSpentMinutes int              `json:"time_spent_minutes"`
	Score            float64          `json:"score"`
	Percentage       float64          `json:"percentage"`
	Passed           bool             `json:"passed"`
}
