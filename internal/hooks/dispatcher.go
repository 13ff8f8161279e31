// Package hooks routes tusd lifecycle callbacks to per-stage handlers and
// produces the directives sent back to the upload server.
package hooks

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lmeng-dev/tusgate/internal/metadata"
	"github.com/lmeng-dev/tusgate/internal/models"
)

// ErrUnknownHookType is returned when an event names a lifecycle stage
// outside the fixed six. Upstream schema validation normally prevents this;
// seeing it means the contract was violated.
var ErrUnknownHookType = errors.New("unknown hook type")

// Context carries the metadata views resolved once per event and shared
// with the selected handler.
type Context struct {
	// Wire is the key -> base64-value mapping recovered from the
	// Upload-Metadata header. Authoritative for filename fidelity.
	Wire map[string]string
	// Decoded is tusd's own decoded metadata view.
	Decoded map[string]string
	// StorageFilename is the ASCII-safe form persisted with the object.
	StorageFilename string
	// DisplayFilename is the human-readable form.
	DisplayFilename string
}

// Handler processes one lifecycle stage. Handlers are stateless, never
// invoked more than once per event, and express business outcomes (such as
// an oversized upload) through the directive rather than an error.
type Handler interface {
	Handle(req *models.HookRequest, mc *Context) (*models.HookResponse, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(req *models.HookRequest, mc *Context) (*models.HookResponse, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(req *models.HookRequest, mc *Context) (*models.HookResponse, error) {
	return f(req, mc)
}

// Dispatcher maps each lifecycle stage to exactly one handler. It holds no
// mutable state and is safe for concurrent dispatch of independent events.
type Dispatcher struct {
	handlers map[models.HookType]Handler
}

// NewDispatcher builds a dispatcher covering all six lifecycle stages.
// maxUploadSize is the pre-create rejection ceiling in bytes.
func NewDispatcher(maxUploadSize int64) *Dispatcher {
	d := &Dispatcher{
		handlers: map[models.HookType]Handler{
			models.HookPreCreate:     &preCreateHandler{maxSize: maxUploadSize},
			models.HookPostCreate:    logOnlyHandler(models.HookPostCreate),
			models.HookPostReceive:   logOnlyHandler(models.HookPostReceive),
			models.HookPreFinish:     logOnlyHandler(models.HookPreFinish),
			models.HookPostFinish:    logOnlyHandler(models.HookPostFinish),
			models.HookPostTerminate: logOnlyHandler(models.HookPostTerminate),
		},
	}

	// A new stage must not silently fall through to "unknown".
	for _, t := range models.HookTypes {
		if _, ok := d.handlers[t]; !ok {
			panic(fmt.Sprintf("hooks: no handler registered for stage %q", t))
		}
	}

	return d
}

// Dispatch resolves the event's metadata context, selects the stage
// handler, and returns its directive unchanged.
func (d *Dispatcher) Dispatch(req *models.HookRequest) (*models.HookResponse, error) {
	slog.Info("hook received",
		"type", req.Type,
		"upload_id", req.Event.Upload.ID,
		"size", req.Event.Upload.Size,
		"offset", req.Event.Upload.Offset,
	)

	handler, ok := d.handlers[req.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHookType, req.Type)
	}

	mc := buildContext(req)
	slog.Info("upload file",
		"filename", mc.DisplayFilename,
		"filetype", filetypeOf(mc.Decoded),
	)

	resp, err := handler.Handle(req, mc)
	if err != nil {
		return nil, err
	}

	slog.Info("hook processed", "type", req.Type)
	return resp, nil
}

// buildContext resolves both metadata views for one event.
func buildContext(req *models.HookRequest) *Context {
	wire := metadata.ExtractWireMetadata(req.Event.HTTPRequest.Header)

	decoded := req.Event.Upload.MetaData
	if decoded == nil {
		decoded = map[string]string{}
	}

	storageName, displayName := metadata.ResolveFilename(wire, decoded)

	return &Context{
		Wire:            wire,
		Decoded:         decoded,
		StorageFilename: storageName,
		DisplayFilename: displayName,
	}
}

func filetypeOf(decoded map[string]string) string {
	if v := decoded["filetype"]; v != "" {
		return v
	}
	if v := decoded["type"]; v != "" {
		return v
	}
	return "unknown"
}
