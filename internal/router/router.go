package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"learning-session/internal/handlers"
	"learning-session/internal/middleware"
)

// WebSocketHandler serves the session update stream.
type WebSocketHandler interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

func New(
	sessionAuth *middleware.SessionAuth,
	healthHandler *handlers.HealthHandler,
	sessionHandler *handlers.SessionHandler,
	contentHandler *handlers.ContentHandler,
	chatHandler *handlers.ChatHandler,
	summaryHandler *handlers.SummaryHandler,
	quizHandler *handlers.QuizHandler,
	progressHandler *handlers.ProgressHandler,
	wsHub WebSocketHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	// Session creation rate limiter (20 req/min per IP)
	createLimiter := middleware.NewRateLimiter(20, time.Minute)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Sessions (public) ────
		r.With(createLimiter.Middleware).Post("/sessions", sessionHandler.Create)

		// ──── Current session ────
		r.Route("/session", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)
			r.Put("/view", sessionHandler.SelectView)
			r.Put("/document", sessionHandler.SetDocument)
			r.Put("/student", sessionHandler.SetStudent)

			r.Post("/upload", contentHandler.Upload)

			r.Put("/chat/draft", chatHandler.SetDraft)
			r.Post("/chat/ask", chatHandler.Ask)

			r.Post("/summary", summaryHandler.Generate)

			r.Route("/quiz", func(r chi.Router) {
				r.Post("/generate", quizHandler.Generate)
				r.Put("/answers", quizHandler.SelectAnswer)
				r.Post("/submit", quizHandler.Submit)
			})

			r.Post("/progress", progressHandler.Refresh)
			r.Post("/teacher-report", progressHandler.TeacherReport)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
