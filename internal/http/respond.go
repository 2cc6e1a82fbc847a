package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Message: message})
}

// respondError maps a domain error kind to its status class. Anything else is logged and
// reported as a generic failure.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Printf("request %v failed: %v", middleware.GetReqID(r.Context()), err)
		respondMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	respondMessage(w, statusFor(de.Kind), de.Message)
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst. It writes the 400 itself and reports false
// on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
