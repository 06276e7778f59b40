package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode response", zap.Int("status", status), zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, ErrorResponse{Message: message})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		// gateway failures, timeouts included, and anything unexpected
		return http.StatusInternalServerError
	}
}

// handleError writes prefix and the error text with the mapped status. Server
// side failures are logged.
func handleError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, prefix string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		requestLogger(r, logger).Error(prefix, zap.Int("status", status), zap.Error(err))
	}
	respondError(w, logger, status, fmt.Sprintf("%s: %s", prefix, err.Error()))
}

// decodeJSON reads at most maxBytes of request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrValidation, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		default:
			return fmt.Errorf("%w: invalid JSON body: %s", domain.ErrValidation, err.Error())
		}
	}
	return nil
}
