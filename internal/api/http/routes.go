package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/openclass/quizengine/internal/auth"
	"github.com/openclass/quizengine/internal/session"
	"github.com/openclass/quizengine/internal/store"
)

// MountStudent wires the attempt-taking and summary surface. Callers are
// expected to have the JWT middleware installed above this.
func MountStudent(r chi.Router, st store.Store, mgr *session.Manager) {
	r.Get("/quizzes", ListQuizSummariesHandler(st))
	r.Get("/quizzes/dashboard", DashboardHandler(st))
	r.Get("/quizzes/{quizID}", GetQuizHandler(st))
	r.Get("/quizzes/{quizID}/review", ReviewHandler(st))
	r.Post("/quizzes/{quizID}/attempts", StartAttemptHandler(st, mgr))

	r.Get("/attempts/{attemptID}", GetAttemptHandler(mgr))
	r.Post("/attempts/{attemptID}/answers", RecordAnswerHandler(st, mgr))
	r.Post("/attempts/{attemptID}/navigate", NavigateHandler(mgr))
	r.Post("/attempts/{attemptID}/submit", RequestSubmitHandler(mgr))
	r.Post("/attempts/{attemptID}/submit/confirm", ConfirmSubmitHandler(mgr))
	r.Post("/attempts/{attemptID}/cancel", CancelAttemptHandler(st, mgr))
}

// MountTeacher wires authoring routes, gated on the teacher role.
func MountTeacher(r chi.Router, st store.Store) {
	r.With(auth.RequireRole("teacher")).Post("/quizzes", PutQuizHandler(st))
}
