// Package metadata encodes and decodes tus upload metadata.
//
// The tus Upload-Metadata header is ASCII-only, so clients transmit each
// value base64-encoded. tusd decodes the header before invoking hooks, and
// that decoded view can silently lose fidelity for non-ASCII filenames on
// its way into object storage. This package keeps both views around: the
// raw wire form stays authoritative for the filename, and the decoded form
// fills in everything else.
package metadata

import (
	"encoding/base64"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"
)

// FallbackFilename is used when neither metadata view carries a filename.
const FallbackFilename = "unknown"

// wireHeader is the tus header carrying per-value base64 metadata.
const wireHeader = "Upload-Metadata"

// FilenameEncoding values recorded in stored object metadata.
const (
	EncodingBase64 = "base64"
	EncodingUTF8   = "utf8"
)

// ExtractWireMetadata parses the Upload-Metadata header out of a hook
// event's request headers into a key -> base64-value mapping. Pairs without
// a space separator are skipped; the header being absent yields an empty
// map. It never fails: metadata recovery is advisory and must not block
// the upload lifecycle.
func ExtractWireMetadata(headers map[string][]string) map[string]string {
	wire := make(map[string]string)
	if headers == nil {
		return wire
	}

	values, ok := headerValues(headers, wireHeader)
	if !ok || len(values) == 0 {
		return wire
	}

	for _, pair := range strings.Split(values[0], ",") {
		pair = strings.TrimSpace(pair)
		key, value, found := strings.Cut(pair, " ")
		if !found || key == "" {
			continue
		}
		wire[key] = value
	}

	return wire
}

// EncodeWire builds an Upload-Metadata header value from plain metadata:
// keys stay as-is, every value is individually base64-encoded. Keys are
// emitted in sorted order so the header is deterministic.
func EncodeWire(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		encoded := base64.StdEncoding.EncodeToString([]byte(meta[k]))
		pairs = append(pairs, k+" "+encoded)
	}

	return strings.Join(pairs, ",")
}

// ResolveFilename determines the filename to persist (ASCII-safe) and the
// filename to show to humans. When the wire form carries a filename, the
// base64 string itself is stored and its decoded UTF-8 text is displayed;
// a broken base64 value falls back to the tusd-decoded filename for
// display while the storage form keeps the original base64 string.
func ResolveFilename(wire, decoded map[string]string) (storage, display string) {
	if b64, ok := wire["filename"]; ok {
		storage = b64

		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			slog.Warn("failed to decode base64 filename", "value", b64, "error", err)
			display = decodedOr(decoded, "filename", FallbackFilename)
			return storage, display
		}

		display = string(raw)
		slog.Debug("using base64 filename", "storage", storage, "display", display)
		return storage, display
	}

	storage = decodedOr(decoded, "filename", FallbackFilename)
	display = storage
	slog.Debug("using decoded filename", "display", display)
	return storage, display
}

// BuildStoredMetadata assembles the key set persisted alongside the stored
// object. Content type is duplicated under the legacy key spellings older
// consumers still read. filename_encoding records whether the filename
// value is base64 or plain UTF-8 so the read path can undo it.
func BuildStoredMetadata(wire, decoded map[string]string, storageFilename, uploadID string) map[string]string {
	name := storageFilename
	if n, ok := wire["name"]; ok {
		name = n
	}

	encoding := EncodingUTF8
	if _, ok := wire["filename"]; ok {
		encoding = EncodingBase64
	}

	contentType := decodedOr(decoded, "type", "application/octet-stream")

	return map[string]string{
		"filename":          storageFilename,
		"filetype":          contentType,
		"fileext":           decodedOr(decoded, "fileext", decodedOr(decoded, "filetype", "unknown")),
		"name":              name,
		"relativePath":      decodedOr(decoded, "relativePath", "null"),
		"type":              contentType,
		"content-type":      contentType,
		"contentType":       contentType,
		"upload_id":         uploadID,
		"filename_encoding": encoding,
	}
}

// filenameKeys are the stored-metadata keys consulted for a filename, in
// priority order. S3-compatible backends may return user metadata either
// bare or under the x-amz-meta- prefix depending on the client.
var filenameKeys = []string{
	"x-amz-meta-filename",
	"x-amz-meta-name",
	"filename",
	"name",
}

// encodingKeys are the stored-metadata keys that may carry the filename
// encoding marker.
var encodingKeys = []string{
	"x-amz-meta-filename_encoding",
	"filename_encoding",
	"x-amz-meta-filename_encoded",
	"filename_encoded",
}

// DecodeStoredFilename recovers the display filename from stored object
// metadata, falling back to the given key (normally the object's storage
// identifier) whenever the metadata is missing or beyond repair. The
// fallback chain never fails; a cosmetic filename issue must not break
// the read path.
func DecodeStoredFilename(meta map[string]string, fallback string) string {
	filename := fallback
	for _, key := range filenameKeys {
		if v, ok := lookupFold(meta, key); ok && v != "" {
			filename = v
			break
		}
	}

	if filename == "" {
		return fallback
	}

	// Near-total mojibake: almost every character was replaced with '?'.
	if looksCorrupted(filename) {
		slog.Warn("detected corrupted filename in metadata", "filename", filename, "fallback", fallback)
		return fallback
	}

	if encodingFlag(meta) == EncodingBase64 {
		raw, err := base64.StdEncoding.DecodeString(filename)
		if err == nil && utf8.Valid(raw) {
			decoded := string(raw)
			slog.Debug("decoded base64 filename", "stored", filename, "decoded", decoded)
			return decoded
		}
		slog.Warn("failed to decode base64 filename", "value", filename, "error", err)
		// Fall through to plain-text handling.
	}

	if !utf8.ValidString(filename) {
		return fallback
	}

	// A common mis-transcoding reads UTF-8 bytes as Latin-1 text, turning
	// "café" into "cafÃ©". Reinterpreting the code points as raw bytes
	// repairs it; the repair only fires when the result is itself valid
	// multi-byte UTF-8, which legitimate Latin-1 names never produce.
	if repaired, ok := repairLatin1(filename); ok {
		slog.Debug("repaired latin1 mis-transcoded filename", "stored", filename, "repaired", repaired)
		return repaired
	}

	return filename
}

// encodingFlag returns the filename encoding marker, if any.
func encodingFlag(meta map[string]string) string {
	for _, key := range encodingKeys {
		if v, ok := lookupFold(meta, key); ok && v != "" {
			return v
		}
	}
	return ""
}

// looksCorrupted reports whether a filename is near-total mojibake: it
// contains a '?' and at most one character that is neither '?' nor '.'.
// Characters, not bytes: a single surviving multi-byte rune still counts
// as one.
func looksCorrupted(filename string) bool {
	if !strings.Contains(filename, "?") {
		return false
	}
	stripped := strings.NewReplacer("?", "", ".", "").Replace(filename)
	return utf8.RuneCountInString(stripped) <= 1
}

// repairLatin1 reinterprets a string's code points as Latin-1 bytes and
// decodes those bytes as UTF-8. Returns false when the string has no
// Latin-1 high characters, has code points outside Latin-1, or the
// resulting bytes are not valid UTF-8.
func repairLatin1(s string) (string, bool) {
	raw := make([]byte, 0, len(s))
	high := false
	for _, r := range s {
		if r > 0xFF {
			return "", false
		}
		if r >= 0x80 {
			high = true
		}
		raw = append(raw, byte(r))
	}
	if !high || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// lookupFold finds a metadata value by key, ignoring case.
func lookupFold(meta map[string]string, key string) (string, bool) {
	if v, ok := meta[key]; ok {
		return v, true
	}
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// headerValues finds a header's values by name, ignoring case.
func headerValues(headers map[string][]string, name string) ([]string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// decodedOr returns decoded[key] or def when absent or empty.
func decodedOr(decoded map[string]string, key, def string) string {
	if decoded == nil {
		return def
	}
	if v, ok := decoded[key]; ok && v != "" {
		return v
	}
	return def
}
