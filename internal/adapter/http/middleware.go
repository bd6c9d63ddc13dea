package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"socialmedia/internal/domain"
	"socialmedia/internal/logger"
	"socialmedia/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type contextKey string

const accountContextKey contextKey = "account"

var errForbidden = errors.New("credentials do not match this account")

// requestIDMiddleware tags every request with an id, reusing the caller's
// X-Request-ID when present, and stores a logger carrying it in the context.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logger.ToContext(r.Context(), s.log.With(zap.String("request_id", id)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware writes one line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.From(r.Context()).Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status(ww)),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// metricsMiddleware records request counts and latency by route pattern so
// path ids do not explode label cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status(ww))).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// ownerMiddleware admits a request only when its Basic credentials belong to
// the account named by {account_id}. The authenticated account is stored in
// the context for the handler.
func (s *Server) ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "account_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		username, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="socialmedia"`)
			writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
			return
		}
		a, err := s.accounts.Authenticate(r.Context(), username, pass)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", `Basic realm="socialmedia"`)
		}
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if a.AccountID != id {
			writeError(w, http.StatusForbidden, errForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, a)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// owner returns the account authenticated by ownerMiddleware.
func owner(r *http.Request) domain.Account {
	a, _ := r.Context().Value(accountContextKey).(domain.Account)
	return a
}
