package handlers

import (
	"net/http"

	"github.com/lmeng-dev/tusgate/internal/config"
)

// publicConfig is the subset of configuration upload clients need.
type publicConfig struct {
	MaxUploadSize int64  `json:"max_upload_size"`
	APIPrefix     string `json:"api_prefix"`
}

// PublicConfigHandler exposes client-relevant limits so upload UIs can
// validate file sizes before starting a transfer.
func PublicConfigHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, publicConfig{
			MaxUploadSize: cfg.MaxUploadSize,
			APIPrefix:     cfg.APIPrefix,
		})
	}
}
