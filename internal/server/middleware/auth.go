package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth returns middleware requiring the operator API key on every request,
// either as "Authorization: Bearer <key>" or in the X-API-Key header. An
// empty key disables authentication entirely.
func Auth(apiKey string) func(http.Handler) http.Handler {
	if apiKey == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := requestKey(r)
			if got == "" {
				deny(w, "missing credentials")
				return
			}
			// Constant-time compare so response timing leaks nothing.
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				deny(w, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestKey pulls the presented key from the Bearer scheme or the
// X-API-Key header, Bearer winning when both are present.
func requestKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
