package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lmeng-dev/tusgate/internal/config"
	"github.com/lmeng-dev/tusgate/internal/models"
)

// sendJSON sends a JSON response with the given status code
func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// sendError sends a JSON error response
func sendError(w http.ResponseWriter, message, code string, status int) {
	sendJSON(w, status, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// buildDownloadURL constructs the full download URL for a file key.
// Respects PUBLIC_URL config and reverse proxy headers.
func buildDownloadURL(r *http.Request, cfg *config.Config, fileKey string) string {
	path := cfg.APIPrefix + "/files/" + url.PathEscape(fileKey) + "/download"

	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/") + path
	}

	return getScheme(r) + "://" + getHost(r) + path
}

// getScheme returns the scheme (http/https) respecting reverse proxy headers
func getScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// getHost returns the host respecting reverse proxy headers
func getHost(r *http.Request) string {
	if host := r.Header.Get("X-Forwarded-Host"); host != "" {
		return host
	}
	return r.Host
}
