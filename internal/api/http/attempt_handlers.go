package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openclass/quizengine/internal/auth"
	"github.com/openclass/quizengine/internal/history"
	"github.com/openclass/quizengine/internal/quiz"
	"github.com/openclass/quizengine/internal/scoring"
	"github.com/openclass/quizengine/internal/session"
	"github.com/openclass/quizengine/internal/store"
)

type attemptView struct {
	Attempt       quiz.Attempt  `json:"attempt"`
	State         session.State `json:"state"`
	RemainingSecs *int          `json:"remaining_secs,omitempty"`
}

func viewOf(s *session.Session) attemptView {
	v := attemptView{Attempt: s.Snapshot(), State: s.State()}
	if secs, ok := s.Remaining(); ok {
		v.RemainingSecs = &secs
	}
	return v
}

// StartAttemptHandler opens (or resumes) the student's attempt for a quiz.
// Refused preconditions come back as structured reason codes, never as a
// half-created session.
func StartAttemptHandler(st store.Store, mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		studentID := auth.SubjectFromContext(ctx)
		q, err := st.GetQuiz(ctx, chi.URLParam(r, "quizID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		prior, err := st.ListAttempts(ctx, q.ID, studentID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		var s *session.Session
		if open := firstInProgress(prior); open != nil {
			s, err = mgr.ResumeAttempt(q, *open)
		} else {
			s, err = mgr.Start(q, studentID, prior)
		}
		if err != nil {
			writeRefusal(w, err)
			return
		}
		// Record the open attempt so it survives a restart and blocks a
		// parallel start elsewhere.
		if s.State() == session.StateInProgress {
			_ = st.SaveAttempt(ctx, s.Snapshot())
		}
		writeJSON(w, viewOf(s))
	}
}

func firstInProgress(attempts []quiz.Attempt) *quiz.Attempt {
	for i := range attempts {
		if attempts[i].Status == quiz.AttemptInProgress {
			return &attempts[i]
		}
	}
	return nil
}

func GetAttemptHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		writeJSON(w, viewOf(s))
	}
}

// RecordAnswerHandler upserts one answer. The wire shape is the inherited
// string-or-array form; it is parsed into a typed answer against the question.
func RecordAnswerHandler(st store.Store, mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			QuestionID string      `json:"question_id"`
			Answer     interface{} `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q, ok := s.Question(req.QuestionID)
		if !ok {
			http.Error(w, "unknown question", http.StatusBadRequest)
			return
		}
		ans, err := quiz.ParseAnswer(q, req.Answer)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Record(req.QuestionID, ans); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		_ = st.SaveAttempt(r.Context(), s.Snapshot())
		writeJSON(w, viewOf(s))
	}
}

func NavigateHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			Action string `json:"action"` // next|previous|jump
			Index  int    `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var err error
		switch req.Action {
		case "next":
			err = s.Next()
		case "previous":
			err = s.Previous()
		case "jump":
			err = s.Jump(req.Index)
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		idx, q, err := s.Current()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]interface{}{"index": idx, "question_id": q.ID})
	}
}

// RequestSubmitHandler and ConfirmSubmitHandler are the two halves of the
// commit; only the confirm finalizes and persists.
func RequestSubmitHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		if err := s.RequestSubmit(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ConfirmSubmitHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := mgr.Confirm(chi.URLParam(r, "attemptID"))
		if err != nil {
			status := http.StatusConflict
			if errors.Is(err, session.ErrSessionNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, a)
	}
}

func CancelAttemptHandler(st store.Store, mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		s, err := mgr.Get(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err := mgr.Cancel(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		// Overwrite the stored in-progress snapshot so history stops
		// reporting an open attempt.
		_ = st.SaveAttempt(r.Context(), s.Snapshot())
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReviewHandler renders the best attempt with its answer detail. Synthesized
// detail is tagged so the UI can visibly distinguish it from recorded answers.
func ReviewHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		studentID := auth.SubjectFromContext(ctx)
		q, err := st.GetQuiz(ctx, chi.URLParam(r, "quizID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		attempts, err := st.ListAttempts(ctx, q.ID, studentID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		best := history.SelectBestAttempt(attempts)
		if best == nil {
			http.Error(w, "no completed attempt", http.StatusNotFound)
			return
		}
		writeJSON(w, struct {
			Attempt quiz.Attempt      `json:"attempt"`
			Review  history.AnswerSet `json:"review"`
		}{Attempt: *best, Review: history.ReviewAnswers(q, *best)})
	}
}

func sessionFor(mgr *session.Manager, w http.ResponseWriter, r *http.Request) *session.Session {
	s, err := mgr.Get(chi.URLParam(r, "attemptID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil
	}
	return s
}

func writeRefusal(w http.ResponseWriter, err error) {
	var ref *scoring.RefusalError
	if errors.As(err, &ref) {
		status := http.StatusConflict
		if ref.Code == scoring.ReasonMissingStudent {
			status = http.StatusUnauthorized
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"reason":  ref.Code,
			"message": ref.Message,
		})
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
