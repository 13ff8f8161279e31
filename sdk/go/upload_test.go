package tusclient

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// tusTestServer is a minimal in-memory tus server for exercising the
// client against real HTTP round trips.
type tusTestServer struct {
	mu       sync.Mutex
	length   int64
	data     []byte
	created  int
	patches  int
	deletes  int
	metadata string

	// failPatches makes the first N PATCH requests fail with 500.
	failPatches int
}

func (s *tusTestServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			s.created++
			s.length, _ = strconv.ParseInt(r.Header.Get("Upload-Length"), 10, 64)
			s.metadata = r.Header.Get("Upload-Metadata")
			w.Header().Set("Location", "/files/upload-1")
			w.WriteHeader(http.StatusCreated)

		case http.MethodPatch:
			s.patches++
			if s.failPatches > 0 {
				s.failPatches--
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			offset, _ := strconv.ParseInt(r.Header.Get("Upload-Offset"), 10, 64)
			if offset != int64(len(s.data)) {
				w.WriteHeader(http.StatusConflict)
				return
			}
			body, _ := io.ReadAll(r.Body)
			s.data = append(s.data, body...)
			w.Header().Set("Upload-Offset", strconv.FormatInt(int64(len(s.data)), 10))
			w.WriteHeader(http.StatusNoContent)

		case http.MethodHead:
			w.Header().Set("Upload-Offset", strconv.FormatInt(int64(len(s.data)), 10))
			w.Header().Set("Upload-Length", strconv.FormatInt(s.length, 10))
			w.WriteHeader(http.StatusOK)

		case http.MethodDelete:
			s.deletes++
			s.data = nil
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestClient(t *testing.T, srv *tusTestServer, cfg Config) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	cfg.Endpoint = ts.URL + "/files"
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, ts
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{"empty", ""},
		{"no scheme", "localhost:1080/files"},
		{"bad scheme", "ftp://localhost/files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(Config{Endpoint: tt.endpoint})
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateUpload(t *testing.T) {
	srv := &tusTestServer{}
	client, ts := newTestClient(t, srv, Config{})

	uploadURL, err := client.CreateUpload(context.Background(), 100, map[string]string{
		"filename": "测试.bin",
	})
	if err != nil {
		t.Fatalf("CreateUpload: %v", err)
	}

	// Relative Location must resolve against the endpoint.
	want := ts.URL + "/files/upload-1"
	if uploadURL != want {
		t.Errorf("expected %q, got %q", want, uploadURL)
	}

	// Metadata values travel base64-encoded.
	wantMeta := "filename " + base64.StdEncoding.EncodeToString([]byte("测试.bin"))
	if srv.metadata != wantMeta {
		t.Errorf("expected metadata %q, got %q", wantMeta, srv.metadata)
	}
}

func TestCreateUpload_NoLocation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	client, err := NewClient(Config{Endpoint: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.CreateUpload(context.Background(), 100, nil)
	var createErr *CreateError
	if !errors.As(err, &createErr) {
		t.Fatalf("expected CreateError, got %v", err)
	}
}

func TestTransfer_ChunkCount(t *testing.T) {
	srv := &tusTestServer{}
	client, ts := newTestClient(t, srv, Config{ChunkSize: 3})

	payload := []byte("0123456789") // 10 bytes, chunk size 3 -> 4 appends
	srv.length = int64(len(payload))

	var progress []int64
	_, err := client.Transfer(context.Background(), strings.NewReader(string(payload)),
		ts.URL+"/files/upload-1", int64(len(payload)), 0,
		func(offset, total int64) { progress = append(progress, offset) })
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if srv.patches != 4 {
		t.Errorf("expected 4 appends, got %d", srv.patches)
	}
	if got := int64(len(srv.data)); got != 10 {
		t.Errorf("expected 10 bytes on server, got %d", got)
	}
	if string(srv.data) != string(payload) {
		t.Errorf("server data mismatch: %q", srv.data)
	}
	wantProgress := []int64{3, 6, 9, 10}
	if len(progress) != len(wantProgress) {
		t.Fatalf("expected %d progress calls, got %d", len(wantProgress), len(progress))
	}
	for i, want := range wantProgress {
		if progress[i] != want {
			t.Errorf("progress[%d] = %d, want %d", i, progress[i], want)
		}
	}
}

func TestTransfer_RetriesThenSucceeds(t *testing.T) {
	srv := &tusTestServer{failPatches: 2}
	client, ts := newTestClient(t, srv, Config{ChunkSize: 4, MaxRetries: 3})

	payload := "payload"
	_, err := client.Transfer(context.Background(), strings.NewReader(payload),
		ts.URL+"/files/upload-1", int64(len(payload)), 0, nil)
	if err != nil {
		t.Fatalf("expected transfer to recover, got %v", err)
	}
	if string(srv.data) != payload {
		t.Errorf("server data mismatch: %q", srv.data)
	}
}

func TestTransfer_RetryExhaustion(t *testing.T) {
	srv := &tusTestServer{failPatches: 100}
	client, ts := newTestClient(t, srv, Config{ChunkSize: 4, MaxRetries: 3})

	_, err := client.Transfer(context.Background(), strings.NewReader("payload"),
		ts.URL+"/files/upload-1", 7, 0, nil)

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected ChunkError, got %v", err)
	}
	if chunkErr.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", chunkErr.Attempts)
	}
	if chunkErr.Offset != 0 {
		t.Errorf("expected failing offset 0, got %d", chunkErr.Offset)
	}
	// The server never accepted any bytes for the failed chunk.
	if len(srv.data) != 0 {
		t.Errorf("expected server offset unchanged, got %d bytes", len(srv.data))
	}
}

func TestTransfer_ResumeFromOffset(t *testing.T) {
	srv := &tusTestServer{data: []byte("01234"), length: 10}
	client, ts := newTestClient(t, srv, Config{ChunkSize: 4})

	// Source positioned at the resume offset, as Resume does.
	_, err := client.Transfer(context.Background(), strings.NewReader("56789"),
		ts.URL+"/files/upload-1", 10, 5, nil)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if string(srv.data) != "0123456789" {
		t.Errorf("server data mismatch: %q", srv.data)
	}
}

func TestResume_AlreadyComplete(t *testing.T) {
	content := []byte("all ten by")
	srv := &tusTestServer{data: content, length: int64(len(content))}
	client, ts := newTestClient(t, srv, Config{})

	path := filepath.Join(t.TempDir(), "file.bin")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := client.Resume(context.Background(), ts.URL+"/files/upload-1", path, nil)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if result.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), result.Size)
	}
	if srv.patches != 0 {
		t.Errorf("expected no append requests, got %d", srv.patches)
	}
}

func TestResume_PartialUpload(t *testing.T) {
	content := []byte("0123456789abcdef")
	srv := &tusTestServer{data: content[:6], length: int64(len(content))}
	client, ts := newTestClient(t, srv, Config{ChunkSize: 4})

	path := filepath.Join(t.TempDir(), "file.bin")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := client.Resume(context.Background(), ts.URL+"/files/upload-1", path, nil); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if string(srv.data) != string(content) {
		t.Errorf("server data mismatch: %q", srv.data)
	}
}

func TestGetUploadInfo(t *testing.T) {
	srv := &tusTestServer{data: []byte("12345"), length: 10}
	client, ts := newTestClient(t, srv, Config{})

	info, err := client.GetUploadInfo(context.Background(), ts.URL+"/files/upload-1")
	if err != nil {
		t.Fatalf("GetUploadInfo: %v", err)
	}
	if info.Offset != 5 || info.Length != 10 {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Complete {
		t.Error("expected incomplete upload")
	}

	srv.mu.Lock()
	srv.data = append(srv.data, []byte("67890")...)
	srv.mu.Unlock()

	info, err = client.GetUploadInfo(context.Background(), ts.URL+"/files/upload-1")
	if err != nil {
		t.Fatalf("GetUploadInfo: %v", err)
	}
	if !info.Complete {
		t.Error("expected complete upload")
	}
}

func TestDelete(t *testing.T) {
	srv := &tusTestServer{}
	client, ts := newTestClient(t, srv, Config{})

	if !client.Delete(context.Background(), ts.URL+"/files/upload-1") {
		t.Error("expected delete to succeed")
	}
	if srv.deletes != 1 {
		t.Errorf("expected 1 delete request, got %d", srv.deletes)
	}

	// Unreachable server reports failure instead of raising.
	if client.Delete(context.Background(), "http://127.0.0.1:1/nope") {
		t.Error("expected delete to report failure")
	}
}

func TestUpload_EndToEnd(t *testing.T) {
	srv := &tusTestServer{}
	client, _ := newTestClient(t, srv, Config{ChunkSize: 1024})

	content := make([]byte, 5000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "数据.bin")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := client.Upload(context.Background(), path, map[string]string{"author": "tester"}, nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if string(srv.data) != string(content) {
		t.Error("server received different bytes")
	}
	wantSum := sha256.Sum256(content)
	if result.Checksum != hex.EncodeToString(wantSum[:]) {
		t.Errorf("checksum mismatch: %s", result.Checksum)
	}
	if result.Metadata["filename"] != "数据.bin" {
		t.Errorf("expected filename metadata, got %q", result.Metadata["filename"])
	}
	if result.Metadata["size"] != "5000" {
		t.Errorf("expected size metadata 5000, got %q", result.Metadata["size"])
	}
	if !strings.Contains(srv.metadata, "sha256 ") {
		t.Errorf("expected sha256 in wire metadata, got %q", srv.metadata)
	}
	if srv.patches != 5 {
		t.Errorf("expected 5 appends for 5000 bytes at 1024, got %d", srv.patches)
	}
}

func TestUpload_EmptyFile(t *testing.T) {
	srv := &tusTestServer{}
	client, _ := newTestClient(t, srv, Config{})

	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := client.Upload(context.Background(), path, nil, nil)
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("expected ErrEmptySource, got %v", err)
	}
}

func TestUploadBytes(t *testing.T) {
	srv := &tusTestServer{}
	client, _ := newTestClient(t, srv, Config{ChunkSize: 8})

	result, err := client.UploadBytes(context.Background(), []byte("hello tus world"), "greeting.txt", nil, nil)
	if err != nil {
		t.Fatalf("UploadBytes: %v", err)
	}
	if string(srv.data) != "hello tus world" {
		t.Errorf("server data mismatch: %q", srv.data)
	}
	if result.Metadata["filename"] != "greeting.txt" {
		t.Errorf("unexpected filename %q", result.Metadata["filename"])
	}
}

func TestChunkErrorMessage(t *testing.T) {
	err := &ChunkError{Offset: 42, Attempts: 3, Err: fmt.Errorf("boom")}
	want := "chunk append at offset 42 failed after 3 attempts: boom"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
