package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/packout/internal/apperrors"
)

const maxBodyBytes = 1 << 20

// writeJSON writes data as a JSON response.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

// errorResponse writes a JSON error with a short code and a message.
func errorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error":   code,
		"message": message,
	})
}

// writeError maps err onto a status code. Internal errors are logged and
// reported without detail.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		errorResponse(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		errorResponse(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		errorResponse(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// decodeJSON reads the request body into dst. Malformed bodies are invalid input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %v: %w", err, apperrors.ErrInvalidInput)
	}
	return nil
}
