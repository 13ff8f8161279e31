package hooks

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lmeng-dev/tusgate/internal/metadata"
	"github.com/lmeng-dev/tusgate/internal/models"
)

// DefaultMaxUploadSize is the pre-create rejection ceiling: 1 GiB.
const DefaultMaxUploadSize = 1 << 30

// preCreateHandler validates upload parameters before tusd creates the
// upload. It is the only stage allowed to assign the upload id or set
// storage metadata.
type preCreateHandler struct {
	maxSize int64
}

func (h *preCreateHandler) Handle(req *models.HookRequest, mc *Context) (*models.HookResponse, error) {
	slog.Info("processing pre-create hook")

	size := req.Event.Upload.Size
	if h.tooLarge(size) {
		slog.Warn("upload rejected: file too large", "size", size, "limit", h.maxSize)
		return &models.HookResponse{
			RejectUpload: true,
			HTTPResponse: &models.HTTPResponse{
				StatusCode: http.StatusRequestEntityTooLarge,
				Body:       "File too large",
			},
		}, nil
	}

	uploadID := uuid.NewString()
	stored := metadata.BuildStoredMetadata(mc.Wire, mc.Decoded, mc.StorageFilename, uploadID)

	slog.Info("upload accepted",
		"upload_id", uploadID,
		"filename", mc.DisplayFilename,
		"size", size,
	)

	return &models.HookResponse{
		ChangeFileInfo: &models.FileInfoChanges{
			ID:       uploadID,
			MetaData: stored,
		},
	}, nil
}

// tooLarge treats zero or absent declared size as "not too large" so
// deferred-length uploads pass pre-create unconditionally.
func (h *preCreateHandler) tooLarge(size int64) bool {
	return size > 0 && size > h.maxSize
}

// logOnlyHandler returns the no-op handler shared by the informational
// stages. post-finish (relocation, notification) and post-terminate
// (cleanup) are deliberate placeholders.
func logOnlyHandler(stage models.HookType) Handler {
	return HandlerFunc(func(req *models.HookRequest, mc *Context) (*models.HookResponse, error) {
		slog.Info("processing hook", "type", stage, "upload_id", req.Event.Upload.ID)
		return &models.HookResponse{}, nil
	})
}
