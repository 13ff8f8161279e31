package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lmeng-dev/tusgate/internal/config"
	"github.com/lmeng-dev/tusgate/internal/metadata"
	"github.com/lmeng-dev/tusgate/internal/metrics"
	"github.com/lmeng-dev/tusgate/internal/models"
	"github.com/lmeng-dev/tusgate/internal/storage"
)

// FileInfoHandler returns a handler that describes a stored object.
// The filename in the response is recovered from the object's metadata,
// surviving base64 wire encoding and legacy Latin-1 mojibake.
func FileInfoHandler(store storage.ObjectStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.PathValue("key"))
		if key == "" {
			metrics.FileInfoRequestsTotal.WithLabelValues("400").Inc()
			sendError(w, "File key is required", "MISSING_KEY", http.StatusBadRequest)
			return
		}

		info, err := store.Stat(r.Context(), key)
		if err != nil {
			status := storageErrorStatus(err)
			metrics.FileInfoRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
			sendStorageError(w, key, err, status)
			return
		}

		metrics.FileInfoRequestsTotal.WithLabelValues("200").Inc()
		sendJSON(w, http.StatusOK, buildFileInfo(r, cfg, info))
	}
}

// DownloadHandler returns a handler that streams a stored object with a
// Content-Disposition built from the recovered filename.
func DownloadHandler(store storage.ObjectStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.PathValue("key"))
		if key == "" {
			metrics.DownloadsTotal.WithLabelValues("400").Inc()
			sendError(w, "File key is required", "MISSING_KEY", http.StatusBadRequest)
			return
		}

		info, err := store.Stat(r.Context(), key)
		if err != nil {
			status := storageErrorStatus(err)
			metrics.DownloadsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
			sendStorageError(w, key, err, status)
			return
		}

		body, err := store.Get(r.Context(), key)
		if err != nil {
			status := storageErrorStatus(err)
			metrics.DownloadsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
			sendStorageError(w, key, err, status)
			return
		}
		defer body.Close()

		filename := metadata.DecodeStoredFilename(info.Metadata, key)

		contentType := info.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		if info.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
		}
		w.Header().Set("Content-Disposition", metadata.ContentDispositionValue(filename))
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, body); err != nil {
			slog.Warn("download stream interrupted", "key", key, "error", err)
		}
		metrics.DownloadsTotal.WithLabelValues("200").Inc()
	}
}

func buildFileInfo(r *http.Request, cfg *config.Config, info *storage.ObjectInfo) models.FileInfo {
	var modified string
	if !info.LastModified.IsZero() {
		modified = info.LastModified.UTC().Format(time.RFC3339)
	}
	return models.FileInfo{
		UploadID:     uploadIDFromMetadata(info.Metadata, info.Key),
		FileKey:      info.Key,
		Filename:     metadata.DecodeStoredFilename(info.Metadata, info.Key),
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: modified,
		ETag:         info.ETag,
		Metadata:     info.Metadata,
		DownloadURL:  buildDownloadURL(r, cfg, info.Key),
		CreatedAt:    modified,
	}
}

// uploadIDFromMetadata extracts the upload id stamped at pre-create time.
// S3 implementations vary on whether user metadata keys carry the
// x-amz-meta- prefix, so both forms are checked case-insensitively.
func uploadIDFromMetadata(meta map[string]string, fallback string) string {
	for _, candidate := range []string{"upload_id", "x-amz-meta-upload_id"} {
		for k, v := range meta {
			if strings.EqualFold(k, candidate) && v != "" {
				return v
			}
		}
	}
	return fallback
}

func storageErrorStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sendStorageError(w http.ResponseWriter, key string, err error, status int) {
	switch status {
	case http.StatusNotFound:
		sendError(w, "File not found", "NOT_FOUND", status)
	case http.StatusServiceUnavailable:
		slog.Error("storage unavailable", "key", key, "error", err)
		sendError(w, "Storage unavailable", "STORAGE_UNAVAILABLE", status)
	default:
		slog.Error("storage operation failed", "key", key, "error", err)
		sendError(w, "Internal server error", "INTERNAL_ERROR", status)
	}
}
