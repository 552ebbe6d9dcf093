package server

import (
	"net/http"

	"github.com/dscprotocol/assistant/internal/api/handlers"
	"github.com/dscprotocol/assistant/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	ChatHandler   *handlers.ChatHandler
	SystemHandler *handlers.SystemHandler
	CORSOrigin    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", cfg.SystemHandler.Health)
		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Post("/reload-knowledge", cfg.SystemHandler.Reload)
	})

	return r
}
