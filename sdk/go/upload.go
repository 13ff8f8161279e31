package tusclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lmeng-dev/tusgate/internal/metadata"
)

const offsetContentType = "application/offset+octet-stream"

// Upload uploads a file with the tus protocol. The filename, content
// type, size, and a streamed sha256 checksum are filled into the
// metadata before the session is created; caller-provided keys win.
//
// Example:
//
//	result, err := client.Upload(ctx, "/path/to/file.bin", nil,
//	    func(offset, total int64) {
//	        fmt.Printf("%d/%d bytes\n", offset, total)
//	    })
func (c *Client) Upload(ctx context.Context, filePath string, meta map[string]string, onProgress ProgressFunc) (*UploadResult, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	fileInfo, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("getting file info: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, &ValidationError{Field: "filePath", Message: "is a directory"}
	}
	fileSize := fileInfo.Size()
	if fileSize == 0 {
		return nil, ErrEmptySource
	}

	meta = cloneMetadata(meta)
	if meta["filename"] == "" {
		meta["filename"] = filepath.Base(absPath)
	}
	if meta["filetype"] == "" {
		if mtype, err := mimetype.DetectFile(absPath); err == nil {
			meta["filetype"] = mtype.String()
		}
	}
	meta["size"] = strconv.FormatInt(fileSize, 10)

	checksum, err := checksumFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("computing checksum: %w", err)
	}
	meta["sha256"] = checksum

	uploadURL, err := c.CreateUpload(ctx, fileSize, meta)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	finalURL, err := c.Transfer(ctx, file, uploadURL, fileSize, 0, onProgress)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		URL:        finalURL,
		Size:       fileSize,
		Metadata:   meta,
		Checksum:   checksum,
		UploadedAt: time.Now(),
	}, nil
}

// UploadBytes uploads an in-memory byte slice under the given filename.
func (c *Client) UploadBytes(ctx context.Context, data []byte, filename string, meta map[string]string, onProgress ProgressFunc) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptySource
	}
	if filename == "" {
		return nil, &ValidationError{Field: "filename", Message: "cannot be empty"}
	}

	size := int64(len(data))

	meta = cloneMetadata(meta)
	meta["filename"] = filename
	if meta["filetype"] == "" {
		meta["filetype"] = mimetype.Detect(data).String()
	}
	meta["size"] = strconv.FormatInt(size, 10)

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	meta["sha256"] = checksum

	uploadURL, err := c.CreateUpload(ctx, size, meta)
	if err != nil {
		return nil, err
	}

	finalURL, err := c.Transfer(ctx, bytes.NewReader(data), uploadURL, size, 0, onProgress)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		URL:        finalURL,
		Size:       size,
		Metadata:   meta,
		Checksum:   checksum,
		UploadedAt: time.Now(),
	}, nil
}

// CreateUpload creates a new upload session and returns its URL.
// Metadata values are base64-encoded per the tus Upload-Metadata wire
// form. A relative Location is resolved against the endpoint.
func (c *Client) CreateUpload(ctx context.Context, totalLength int64, meta map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), nil)
	if err != nil {
		return "", &CreateError{Message: "building request", Err: err}
	}
	setCommonHeaders(req)
	req.Header.Set("Upload-Length", strconv.FormatInt(totalLength, 10))
	if wire := metadata.EncodeWire(meta); wire != "" {
		req.Header.Set("Upload-Metadata", wire)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &CreateError{Message: "executing request", Err: err}
	}
	defer drainClose(resp)

	if resp.StatusCode >= 400 {
		return "", &CreateError{Message: fmt.Sprintf("server returned %s", resp.Status)}
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", &CreateError{Message: "server did not return an upload URL"}
	}

	uploadURL, err := c.resolveLocation(location)
	if err != nil {
		return "", &CreateError{Message: "server returned an invalid upload URL", Err: err}
	}
	return uploadURL, nil
}

// Transfer appends bytes from source to an upload session starting at
// startOffset. Each chunk is retried up to the configured maximum with
// a linearly increasing delay; the offset only advances on the
// server's acknowledgment. The loop ends when the offset reaches
// totalLength or the source is exhausted.
func (c *Client) Transfer(ctx context.Context, source io.Reader, uploadURL string, totalLength, startOffset int64, onProgress ProgressFunc) (string, error) {
	offset := startOffset
	buf := make([]byte, c.chunkSize)

	for offset < totalLength {
		want := c.chunkSize
		if remaining := totalLength - offset; remaining < want {
			want = remaining
		}

		n, err := io.ReadFull(source, buf[:want])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", &ChunkError{Offset: offset, Err: fmt.Errorf("reading source: %w", err)}
		}
		if n == 0 {
			break
		}

		newOffset, err := c.appendChunk(ctx, uploadURL, offset, buf[:n])
		if err != nil {
			return "", err
		}
		offset = newOffset

		if onProgress != nil {
			onProgress(offset, totalLength)
		}
	}

	return uploadURL, nil
}

// appendChunk sends one chunk, retrying transient failures. It returns
// the server-acknowledged offset.
func (c *Client) appendChunk(ctx context.Context, uploadURL string, offset int64, chunk []byte) (int64, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff: delay grows with each attempt.
			select {
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return 0, &ChunkError{Offset: offset, Attempts: attempt, Err: ctx.Err()}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, uploadURL, bytes.NewReader(chunk))
		if err != nil {
			return 0, &ChunkError{Offset: offset, Attempts: attempt + 1, Err: err}
		}
		setCommonHeaders(req)
		req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))
		req.Header.Set("Content-Type", offsetContentType)
		req.ContentLength = int64(len(chunk))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			drainClose(resp)
			continue
		}

		newOffset, err := strconv.ParseInt(resp.Header.Get("Upload-Offset"), 10, 64)
		drainClose(resp)
		if err != nil {
			// Server acknowledged without a usable offset header;
			// assume the whole chunk was accepted.
			newOffset = offset + int64(len(chunk))
		}
		return newOffset, nil
	}

	return 0, &ChunkError{Offset: offset, Attempts: c.maxRetries, Err: lastErr}
}

// Resume continues an interrupted upload of filePath at the session's
// current server-side offset. If the session is already complete, it
// returns immediately without sending any bytes.
func (c *Client) Resume(ctx context.Context, uploadURL, filePath string, onProgress ProgressFunc) (*UploadResult, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("getting file info: %w", err)
	}
	fileSize := fileInfo.Size()

	info, err := c.GetUploadInfo(ctx, uploadURL)
	if err != nil {
		return nil, err
	}

	if info.Offset >= fileSize {
		return &UploadResult{URL: uploadURL, Size: fileSize, UploadedAt: time.Now()}, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(info.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to offset %d: %w", info.Offset, err)
	}

	finalURL, err := c.Transfer(ctx, file, uploadURL, fileSize, info.Offset, onProgress)
	if err != nil {
		return nil, err
	}

	return &UploadResult{URL: finalURL, Size: fileSize, UploadedAt: time.Now()}, nil
}

// GetUploadInfo probes an upload session's current state with a HEAD
// request. Offsets are compared as integers, so completeness is
// reported correctly regardless of how the server formats the headers.
func (c *Client) GetUploadInfo(ctx context.Context, uploadURL string) (*UploadInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uploadURL, nil)
	if err != nil {
		return nil, &ProbeError{URL: uploadURL, Err: err}
	}
	setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProbeError{URL: uploadURL, Err: err}
	}
	defer drainClose(resp)

	if resp.StatusCode >= 400 {
		return nil, &ProbeError{URL: uploadURL, Err: fmt.Errorf("server returned %s", resp.Status)}
	}

	offset, _ := strconv.ParseInt(resp.Header.Get("Upload-Offset"), 10, 64)
	length, _ := strconv.ParseInt(resp.Header.Get("Upload-Length"), 10, 64)

	return &UploadInfo{
		Offset:         offset,
		Length:         length,
		MetadataHeader: resp.Header.Get("Upload-Metadata"),
		Expires:        resp.Header.Get("Upload-Expires"),
		Complete:       length > 0 && offset == length,
	}, nil
}

// Delete terminates an upload session. It reports success and never
// returns an error; a session that cannot be deleted is left for the
// server's own expiry.
func (c *Client) Delete(ctx context.Context, uploadURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, uploadURL, nil)
	if err != nil {
		return false
	}
	setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer drainClose(resp)

	return resp.StatusCode < 400
}

// checksumFile computes the hex-encoded sha256 of a file using a small
// streaming buffer.
func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(hash, file, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func cloneMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta)+4)
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// drainClose discards any remaining body so the connection can be
// reused, then closes it.
func drainClose(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
