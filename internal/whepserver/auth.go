package whepserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireBearer rejects requests that do not carry the configured token.
// With no token configured every request passes.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	want := s.cfg.Token
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			s.reject(w, "unauthorized", `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
