package models

// FileInfo is the JSON response for the file info endpoint.
type FileInfo struct {
	UploadID     string            `json:"upload_id"`
	FileKey      string            `json:"file_key"`
	Filename     string            `json:"filename"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	DownloadURL  string            `json:"download_url"`
	CreatedAt    string            `json:"created_at,omitempty"`
}

// ErrorResponse is the JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the JSON response for the health check endpoint
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Storage       string `json:"storage"`
}
