package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/openclass/quizengine/internal/quiz"
)

// SQLStore persists quizzes and attempts with JSON-encoded detail columns.
// The same statements run on sqlite and postgres.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutQuiz(ctx context.Context, q quiz.Quiz) error {
	q.TotalPoints = q.SumPoints()
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	cj, err := json.Marshal(q.Config)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,total_points,questions_json,config_json,available_from,available_until,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, total_points=EXCLUDED.total_points,
			questions_json=EXCLUDED.questions_json, config_json=EXCLUDED.config_json,
			available_from=EXCLUDED.available_from, available_until=EXCLUDED.available_until`,
		q.ID, q.Title, q.TotalPoints, string(qj), string(cj),
		unixOrNil(q.AvailableFrom), unixOrNil(q.AvailableUntil), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,total_points,questions_json,config_json,available_from,available_until FROM quizzes WHERE id=$1`, id)
	return scanQuiz(row)
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) ([]quiz.Quiz, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,total_points,questions_json,config_json,available_from,available_until
		FROM quizzes ORDER BY id LIMIT $1 OFFSET $2`, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []quiz.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuiz(row rowScanner) (quiz.Quiz, error) {
	var q quiz.Quiz
	var qjson, cjson string
	var from, until sql.NullInt64
	if err := row.Scan(&q.ID, &q.Title, &q.TotalPoints, &qjson, &cjson, &from, &until); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Quiz{}, ErrQuizNotFound
		}
		return quiz.Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return quiz.Quiz{}, err
	}
	if err := json.Unmarshal([]byte(cjson), &q.Config); err != nil {
		return quiz.Quiz{}, err
	}
	q.AvailableFrom = timeOrNil(from)
	q.AvailableUntil = timeOrNil(until)
	return q, nil
}

func (s *SQLStore) SaveAttempt(ctx context.Context, a quiz.Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts (id,quiz_id,student_id,attempt_number,status,answers_json,started_at,completed_at,time_spent_minutes,score,percentage,passed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, answers_json=EXCLUDED.answers_json,
			completed_at=EXCLUDED.completed_at, time_spent_minutes=EXCLUDED.time_spent_minutes,
			score=EXCLUDED.score, percentage=EXCLUDED.percentage, passed=EXCLUDED.passed`,
		a.ID, a.QuizID, a.StudentID, a.AttemptNumber, string(a.Status), string(aj),
		a.StartedAt.Unix(), unixOrNil(a.CompletedAt), a.TimeSpentMinutes, a.Score, a.Percentage, a.Passed)
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (quiz.Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,student_id,attempt_number,status,answers_json,started_at,completed_at,time_spent_minutes,score,percentage,passed
		FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) ListAttempts(ctx context.Context, quizID, studentID string) ([]quiz.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,quiz_id,student_id,attempt_number,status,answers_json,started_at,completed_at,time_spent_minutes,score,percentage,passed
		FROM attempts WHERE quiz_id=$1 AND student_id=$2 ORDER BY started_at, attempt_number`, quizID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []quiz.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAttempt(row rowScanner) (quiz.Attempt, error) {
	var a quiz.Attempt
	var status, ajson string
	var started int64
	var completed sql.NullInt64
	if err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.AttemptNumber, &status, &ajson,
		&started, &completed, &a.TimeSpentMinutes, &a.Score, &a.Percentage, &a.Passed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Attempt{}, ErrAttemptNotFound
		}
		return quiz.Attempt{}, err
	}
	a.Status = quiz.AttemptStatus(status)
	a.StartedAt = time.Unix(started, 0).UTC()
	a.CompletedAt = timeOrNil(completed)
	if ajson != "" && ajson != "null" {
		if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
			return quiz.Attempt{}, err
		}
	}
	return a, nil
}

func unixOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
