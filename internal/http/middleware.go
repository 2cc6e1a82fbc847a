package http

import (
	"net/http"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// TokenParser turns a bearer token into a user id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// RequestIDMiddleware echoes the request id assigned by middleware.RequestID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticate resolves the bearer token, when present, into the request's user. Requests
// without a token pass through anonymous; a bad token is rejected.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				// browsers cannot set headers on a websocket handshake
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := tokens.Parse(token)
			if err != nil {
				respondMessage(w, http.StatusUnauthorized, "Token is invalid")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), userID)))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserFrom(r.Context()) == "" {
			respondMessage(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
