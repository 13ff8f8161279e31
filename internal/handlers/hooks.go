package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lmeng-dev/tusgate/internal/hooks"
	"github.com/lmeng-dev/tusgate/internal/metrics"
	"github.com/lmeng-dev/tusgate/internal/models"
)

// HookHandler returns a handler for tusd lifecycle hook callbacks.
// tusd POSTs a HookRequest for each upload lifecycle stage and applies
// the directives in the HookResponse we return.
func HookHandler(dispatcher *hooks.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		var req models.HookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("invalid hook payload", "error", err)
			metrics.HooksTotal.WithLabelValues("unknown", "error").Inc()
			sendError(w, "Invalid hook payload", "INVALID_PAYLOAD", http.StatusBadRequest)
			return
		}

		if !req.Type.Valid() {
			slog.Warn("unknown hook type", "type", req.Type)
			metrics.HooksTotal.WithLabelValues(string(req.Type), "error").Inc()
			sendError(w, "Unknown hook type", "INVALID_HOOK_TYPE", http.StatusBadRequest)
			return
		}

		start := time.Now()
		resp, err := dispatcher.Dispatch(&req)
		metrics.HookDuration.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())

		if err != nil {
			slog.Error("hook dispatch failed", "type", req.Type, "error", err)
			metrics.HooksTotal.WithLabelValues(string(req.Type), "error").Inc()
			sendError(w, "Hook processing failed", "HOOK_ERROR", http.StatusInternalServerError)
			return
		}

		outcome := "accepted"
		if resp.RejectUpload {
			outcome = "rejected"
			metrics.UploadsRejectedTotal.Inc()
		}
		metrics.HooksTotal.WithLabelValues(string(req.Type), outcome).Inc()

		sendJSON(w, http.StatusOK, resp)
	}
}
