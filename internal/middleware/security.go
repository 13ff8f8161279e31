package middleware

import (
	"net/http"
)

// SecurityHeadersMiddleware adds security-related HTTP headers to all responses.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Browser must respect the Content-Type we set on downloads.
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// This service serves no HTML; block framing outright.
		w.Header().Set("X-Frame-Options", "DENY")

		w.Header().Set("Referrer-Policy", "same-origin")

		next.ServeHTTP(w, r)
	})
}
