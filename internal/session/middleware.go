package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// EditMiddleware guards mutating sketch routes. The Bearer token must be
// the edit token issued for the sketch in the path; tokens for other
// sketches are rejected with 403 rather than 401.
func (s *Service) EditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			return
		}

		if err := s.ValidateEditToken(parts[1], mux.Vars(r)["sketchId"]); err != nil {
			if errors.Is(err, ErrForbidden) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "token is for another sketch"})
				return
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
