package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"dashboard-backend/internal/handlers"
	"dashboard-backend/internal/middleware"
)

func New(
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	allowedOrigins []string,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))

	// Health check
	r.Get("/health", handlers.Health)

	r.Post("/login", authHandler.Login)

	// The dashboard frontend posts to /chat/; / is the canonical path.
	r.Post("/", chatHandler.Chat)
	r.Post("/chat", chatHandler.Chat)
	r.Post("/chat/", chatHandler.Chat)

	return r
}
