package tusclient

import "time"

// ProgressFunc is invoked after each acknowledged chunk with the current
// server-acknowledged offset and the total upload length. It runs
// synchronously between chunk appends; a slow callback stalls the
// transfer.
type ProgressFunc func(offset, total int64)

// UploadResult describes a completed (or already-complete resumed) upload.
type UploadResult struct {
	// URL is the upload's session URL on the server.
	URL string
	// Size is the total number of bytes in the upload.
	Size int64
	// Metadata is the metadata sent at creation time, including the
	// auto-filled filename, filetype, size, and sha256 fields.
	Metadata map[string]string
	// Checksum is the hex-encoded sha256 of the content, when computed.
	Checksum string
	// UploadedAt is when the transfer finished.
	UploadedAt time.Time
}

// UploadInfo describes the server-side state of an upload session.
type UploadInfo struct {
	// Offset is the number of bytes the server has accepted.
	Offset int64
	// Length is the declared total length, or 0 if deferred.
	Length int64
	// MetadataHeader is the raw wire metadata header, if the server
	// returned one.
	MetadataHeader string
	// Expires is the raw Upload-Expires header value, if present.
	Expires string
	// Complete reports whether the accepted offset has reached the
	// declared length.
	Complete bool
}
