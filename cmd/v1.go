package main

import (
	"github.com/go-chi/chi/v5"
)

func NewV1Router(a *app) *chi.Mux {
	v1 := chi.NewRouter()
	h := a.api

	v1.Get("/healthz", h.HandlerReadiness)

	// qotd layer
	v1.Post("/qotd/link-cf", a.auth.JWTMiddleware(h.HandlerLinkHandle))
	v1.Get("/qotd/cf-handle", a.auth.JWTMiddleware(h.HandlerGetHandle))
	v1.Get("/qotd/today", a.auth.JWTMiddleware(h.HandlerGetTodaysQuestion))
	v1.Get("/qotd/all", a.auth.JWTMiddleware(h.HandlerListQuestions))
	v1.Get("/qotd/submission", a.auth.JWTMiddleware(h.HandlerRecentSubmissions))
	v1.Get("/qotd/leaderboard", a.auth.JWTMiddleware(h.HandlerLeaderboard))
	v1.Post("/qotd/update-status", a.limiter.Middleware(h.HandlerUpdateStatus))
	v1.Post("/qotd/editorial", h.HandlerEditorial)

	// admin layer
	v1.Post("/admin/questions", a.auth.AdminMiddleware(h.HandlerCreateQuestion))
	v1.Get("/admin/questions", a.auth.AdminMiddleware(h.HandlerAdminListQuestions))
	v1.Get("/admin/questions/{id}", a.auth.AdminMiddleware(h.HandlerGetQuestionByID))
	v1.Put("/admin/questions/{id}", a.auth.AdminMiddleware(h.HandlerUpdateQuestion))
	v1.Delete("/admin/questions/{id}", a.auth.AdminMiddleware(h.HandlerDeleteQuestion))
	v1.Post("/admin/qotd", a.auth.AdminMiddleware(h.HandlerSetQuestionOfTheDay))
	v1.Get("/admin/qotd", a.auth.AdminMiddleware(h.HandlerGetQuestionOfTheDay))
	v1.Post("/admin/qotd/generate", a.auth.AdminMiddleware(h.HandlerGenerateQuestion))
	v1.Get("/admin/analytics", a.auth.AdminMiddleware(h.HandlerAnalytics))

	return v1
}
