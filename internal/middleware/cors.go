package middleware

import (
	"net/http"
)

// corsExposedHeaders lists the tus protocol headers browser clients need
// to read from upload responses proxied through this service.
const corsExposedHeaders = "Upload-Offset, Upload-Length, Upload-Metadata, Location, Content-Disposition"

// CORSMiddleware allows cross-origin requests from upload web clients.
// The upstream deployment fronts browsers directly, so all origins are
// permitted; credentialed requests echo the origin back.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Expose-Headers", corsExposedHeaders)

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, HEAD, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
