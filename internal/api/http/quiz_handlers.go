package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openclass/quizengine/internal/auth"
	"github.com/openclass/quizengine/internal/quiz"
	"github.com/openclass/quizengine/internal/store"
	"github.com/openclass/quizengine/internal/summary"
)

func PutQuizHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if q.ID == "" || q.Title == "" {
			http.Error(w, "id and title required", http.StatusBadRequest)
			return
		}
		if err := st.PutQuiz(r.Context(), q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetQuizHandler serves the test-taker view: correct flags and canonical
// answers stripped.
func GetQuizHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := st.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, q.Sanitized())
	}
}

// ListQuizSummariesHandler projects every quiz for the current student.
func ListQuizSummariesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := projectAll(r, st)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, summaries)
	}
}

func DashboardHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := projectAll(r, st)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, summary.Aggregate(summaries))
	}
}

func projectAll(r *http.Request, st store.Store) ([]summary.QuizSummary, error) {
	ctx := r.Context()
	studentID := auth.SubjectFromContext(ctx)
	quizzes, err := st.ListQuizzes(ctx, store.ListOpts{})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	summaries := make([]summary.QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		attempts, err := st.ListAttempts(ctx, q.ID, studentID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary.ProjectSummary(q, attempts, now))
	}
	return summaries, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
