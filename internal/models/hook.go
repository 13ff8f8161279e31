package models

// HookType identifies a tusd upload lifecycle stage.
type HookType string

const (
	HookPreCreate     HookType = "pre-create"
	HookPostCreate    HookType = "post-create"
	HookPostReceive   HookType = "post-receive"
	HookPreFinish     HookType = "pre-finish"
	HookPostFinish    HookType = "post-finish"
	HookPostTerminate HookType = "post-terminate"
)

// HookTypes lists every lifecycle stage the dispatcher must cover.
var HookTypes = []HookType{
	HookPreCreate,
	HookPostCreate,
	HookPostReceive,
	HookPreFinish,
	HookPostFinish,
	HookPostTerminate,
}

// Valid reports whether t is one of the known lifecycle stages.
func (t HookType) Valid() bool {
	for _, known := range HookTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Upload is the upload state as reported by tusd in a hook event.
type Upload struct {
	ID             string                 `json:"ID"`
	Size           int64                  `json:"Size"`
	SizeIsDeferred bool                   `json:"SizeIsDeferred"`
	Offset         int64                  `json:"Offset"`
	MetaData       map[string]string      `json:"MetaData"`
	IsPartial      bool                   `json:"IsPartial"`
	IsFinal        bool                   `json:"IsFinal"`
	PartialUploads []string               `json:"PartialUploads"`
	Storage        map[string]interface{} `json:"Storage"`
}

// HTTPRequest describes the client request that triggered the hook.
type HTTPRequest struct {
	Method     string              `json:"Method"`
	URI        string              `json:"URI"`
	RemoteAddr string              `json:"RemoteAddr"`
	Header     map[string][]string `json:"Header"`
}

// HookEvent is the immutable payload of one lifecycle callback.
type HookEvent struct {
	Upload      Upload      `json:"Upload"`
	HTTPRequest HTTPRequest `json:"HTTPRequest"`
}

// HookRequest is the JSON envelope tusd posts to the hook endpoint.
type HookRequest struct {
	Type  HookType  `json:"Type"`
	Event HookEvent `json:"Event"`
}

// HTTPResponse overrides the response tusd sends back to the upload client.
type HTTPResponse struct {
	StatusCode int               `json:"StatusCode,omitempty"`
	Body       string            `json:"Body,omitempty"`
	Header     map[string]string `json:"Header,omitempty"`
}

// FileInfoChanges asks tusd to rename the upload, replace its metadata,
// or relocate its storage. Zero-valued fields request no change.
type FileInfoChanges struct {
	ID       string                 `json:"ID,omitempty"`
	MetaData map[string]string      `json:"MetaData,omitempty"`
	Storage  map[string]interface{} `json:"Storage,omitempty"`
}

// HookResponse is the directive returned from one hook dispatch.
type HookResponse struct {
	HTTPResponse   *HTTPResponse    `json:"HTTPResponse,omitempty"`
	RejectUpload   bool             `json:"RejectUpload,omitempty"`
	ChangeFileInfo *FileInfoChanges `json:"ChangeFileInfo,omitempty"`
	StopUpload     bool             `json:"StopUpload,omitempty"`
}
