package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"warren-backend/internal/handlers"
	"warren-backend/internal/middleware"
	"warren-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	sessionHandler *handlers.SessionHandler,
	chatHandler *handlers.ChatHandler,
	bookingHandler *handlers.BookingHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Session creation limiter (20 req/min per IP) and turn limiter for the
	// chat and booking routes (30 req/min per IP)
	sessionLimiter := middleware.NewRateLimiter(20, time.Minute)
	turnLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes (public) ────
		r.Route("/session", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(sessionLimiter.Middleware)
				r.Post("/", sessionHandler.Create)
			})

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth.Middleware)
				r.Get("/transcript", sessionHandler.Transcript)
			})
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Use(turnLimiter.Middleware)
			r.Use(sessionAuth.Middleware)
			r.Post("/message", chatHandler.SendMessage)
			r.Post("/playpen", chatHandler.AskPlaypen)
		})

		// ──── Booking Routes ────
		r.Route("/booking", func(r chi.Router) {
			r.Use(turnLimiter.Middleware)
			r.Use(sessionAuth.Middleware)
			r.Post("/", bookingHandler.Submit)
			r.Get("/", bookingHandler.List)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
