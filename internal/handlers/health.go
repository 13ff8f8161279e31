package handlers

import (
	"net/http"
	"time"

	"github.com/lmeng-dev/tusgate/internal/models"
	"github.com/lmeng-dev/tusgate/internal/storage"
)

// setHealthCacheHeaders prevents intermediaries from caching health responses
func setHealthCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// HealthHandler returns a liveness/readiness handler. The storage backend
// is pinged on each call; a failing ping degrades the status but the
// endpoint still responds 200 so orchestrators can distinguish a slow
// backend from a dead process.
func HealthHandler(store storage.ObjectStore, startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setHealthCacheHeaders(w)

		storageStatus := "ok"
		status := "healthy"
		if err := store.Ping(r.Context()); err != nil {
			storageStatus = "unavailable"
			status = "degraded"
		}

		sendJSON(w, http.StatusOK, models.HealthResponse{
			Status:        status,
			UptimeSeconds: int64(time.Since(startTime).Seconds()),
			Storage:       storageStatus,
		})
	}
}
