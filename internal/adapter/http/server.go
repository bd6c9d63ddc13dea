// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"socialmedia/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	accounts *app.AccountService
	messages *app.MessageService
	log      *zap.Logger
	metrics  http.Handler
	sso      *SSO
}

// Option configures optional parts of the Server.
type Option func(*Server)

// WithLogger sets the base request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics exposes h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithSSO enables the /sso routes.
func WithSSO(sso *SSO) Option {
	return func(s *Server) { s.sso = sso }
}

// New creates a Server wired to the given application services.
func New(accounts *app.AccountService, messages *app.MessageService, opts ...Option) *Server {
	s := &Server{accounts: accounts, messages: messages, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(metricsMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.handleListAccounts)
		r.Get("/{account_id}", s.handleGetAccount)
		r.With(s.ownerMiddleware).Delete("/{account_id}", s.handleDeleteAccount)
		r.With(s.ownerMiddleware).Put("/{account_id}/password", s.handleChangePassword)
		r.Get("/{account_id}/messages", s.handleMessagesByAccount)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Post("/", s.handleCreateMessage)
		r.Get("/", s.handleListMessages)
		r.Get("/{message_id}", s.handleGetMessage)
		r.Delete("/{message_id}", s.handleDeleteMessage)
		r.Patch("/{message_id}", s.handleUpdateMessage)
	})

	if s.sso != nil {
		r.Get("/sso/login", s.handleSSOLogin)
		r.Get("/sso/callback", s.handleSSOCallback)
	}

	return r
}
