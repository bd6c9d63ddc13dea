package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"socialmedia/internal/domain"
	"socialmedia/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errInternal = errors.New("internal error")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeEmpty answers 200 with no body, the response for lookups that found
// nothing.
func writeEmpty(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

// writeDomainError maps service errors onto status codes. Storage failures
// are logged and hidden from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err), domain.IsConflict(err):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
	case domain.IsNotFound(err):
		writeEmpty(w)
	default:
		logger.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errInternal)
	}
}

func parseJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func pathID(r *http.Request, key string) (int64, error) {
	v := chi.URLParam(r, key)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return id, nil
}
