package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lmeng-dev/tusgate/internal/config"
	"github.com/lmeng-dev/tusgate/internal/hooks"
	"github.com/lmeng-dev/tusgate/internal/models"
	"github.com/lmeng-dev/tusgate/internal/storage"
	"github.com/lmeng-dev/tusgate/internal/storage/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:          "8000",
		APIPrefix:     "/api/v1",
		MaxUploadSize: 1 << 30,
	}
}

func TestFileInfoHandler(t *testing.T) {
	store := mock.New()
	store.SetObject("abc123", &mock.Object{
		Body:        []byte("hello world"),
		ContentType: "text/plain",
		Metadata: map[string]string{
			"filename":          base64.StdEncoding.EncodeToString([]byte("测试文件.txt")),
			"filename_encoding": "base64",
			"upload_id":         "upl-42",
		},
	})

	handler := FileInfoHandler(store, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/abc123", nil)
	req.SetPathValue("key", "abc123")
	req.Host = "tusgate.example.com"
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var info models.FileInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.Filename != "测试文件.txt" {
		t.Errorf("expected recovered filename, got %q", info.Filename)
	}
	if info.UploadID != "upl-42" {
		t.Errorf("expected upload_id upl-42, got %q", info.UploadID)
	}
	if info.Size != int64(len("hello world")) {
		t.Errorf("expected size %d, got %d", len("hello world"), info.Size)
	}
	want := "http://tusgate.example.com/api/v1/files/abc123/download"
	if info.DownloadURL != want {
		t.Errorf("expected download URL %q, got %q", want, info.DownloadURL)
	}
}

func TestFileInfoHandler_PublicURL(t *testing.T) {
	store := mock.New()
	store.SetObject("abc123", &mock.Object{Body: []byte("x")})

	cfg := testConfig()
	cfg.PublicURL = "https://files.example.com/"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/abc123", nil)
	req.SetPathValue("key", "abc123")
	rec := httptest.NewRecorder()
	FileInfoHandler(store, cfg)(rec, req)

	var info models.FileInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := "https://files.example.com/api/v1/files/abc123/download"
	if info.DownloadURL != want {
		t.Errorf("expected download URL %q, got %q", want, info.DownloadURL)
	}
}

func TestFileInfoHandler_NotFound(t *testing.T) {
	store := mock.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/missing", nil)
	req.SetPathValue("key", "missing")
	rec := httptest.NewRecorder()
	FileInfoHandler(store, testConfig())(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	var errResp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if errResp.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND code, got %q", errResp.Code)
	}
}

func TestFileInfoHandler_EmptyKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/%20", nil)
	req.SetPathValue("key", "  ")
	rec := httptest.NewRecorder()
	FileInfoHandler(mock.New(), testConfig())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestFileInfoHandler_StorageUnavailable(t *testing.T) {
	store := mock.New()
	store.StatError = storage.NewError("Stat", "abc", storage.ErrUnavailable)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/abc", nil)
	req.SetPathValue("key", "abc")
	rec := httptest.NewRecorder()
	FileInfoHandler(store, testConfig())(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestDownloadHandler(t *testing.T) {
	store := mock.New()
	store.SetObject("doc1", &mock.Object{
		Body:        []byte("file contents"),
		ContentType: "application/pdf",
		Metadata: map[string]string{
			"filename": "report.pdf",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/doc1/download", nil)
	req.SetPathValue("key", "doc1")
	rec := httptest.NewRecorder()
	DownloadHandler(store, testConfig())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="report.pdf"` {
		t.Errorf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "file contents" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestDownloadHandler_NonASCIIFilename(t *testing.T) {
	store := mock.New()
	store.SetObject("doc2", &mock.Object{
		Body: []byte("data"),
		Metadata: map[string]string{
			"filename":          base64.StdEncoding.EncodeToString([]byte("测试.pdf")),
			"filename_encoding": "base64",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/doc2/download", nil)
	req.SetPathValue("key", "doc2")
	rec := httptest.NewRecorder()
	DownloadHandler(store, testConfig())(rec, req)

	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "filename*=UTF-8''%E6%B5%8B%E8%AF%95.pdf") {
		t.Errorf("expected RFC 5987 disposition, got %q", disposition)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("expected octet-stream fallback, got %q", got)
	}
}

func TestDownloadHandler_NotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/nope/download", nil)
	req.SetPathValue("key", "nope")
	rec := httptest.NewRecorder()
	DownloadHandler(mock.New(), testConfig())(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	store := mock.New()
	start := time.Now().Add(-5 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler(store, start)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Errorf("expected no-store cache header, got %q", got)
	}

	var health models.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health.Status != "healthy" || health.Storage != "ok" {
		t.Errorf("unexpected health %+v", health)
	}
	if health.UptimeSeconds < 4 {
		t.Errorf("expected uptime >= 4s, got %d", health.UptimeSeconds)
	}
}

func TestHealthHandler_StorageDown(t *testing.T) {
	store := mock.New()
	store.PingError = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler(store, time.Now())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var health models.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health.Status != "degraded" || health.Storage != "unavailable" {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestPublicConfigHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	rec := httptest.NewRecorder()
	PublicConfigHandler(testConfig())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cfg struct {
		MaxUploadSize int64  `json:"max_upload_size"`
		APIPrefix     string `json:"api_prefix"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if cfg.MaxUploadSize != 1<<30 {
		t.Errorf("expected max upload size %d, got %d", 1<<30, cfg.MaxUploadSize)
	}
	if cfg.APIPrefix != "/api/v1" {
		t.Errorf("expected api prefix /api/v1, got %q", cfg.APIPrefix)
	}
}

func hookBody(t *testing.T, req *models.HookRequest) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(req); err != nil {
		t.Fatalf("failed to encode hook request: %v", err)
	}
	return buf
}

func TestHookHandler_PreCreateAccepted(t *testing.T) {
	handler := HookHandler(hooks.NewDispatcher(1 << 30))

	body := hookBody(t, &models.HookRequest{
		Type: models.HookPreCreate,
		Event: models.HookEvent{
			Upload: models.Upload{Size: 1024, MetaData: map[string]string{"filename": "a.txt"}},
			HTTPRequest: models.HTTPRequest{
				Method: "POST",
				Header: map[string][]string{
					"Upload-Metadata": {"filename " + base64.StdEncoding.EncodeToString([]byte("a.txt"))},
				},
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.HookResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode hook response: %v", err)
	}
	if resp.RejectUpload {
		t.Error("expected upload to be accepted")
	}
	if resp.ChangeFileInfo == nil || resp.ChangeFileInfo.ID == "" {
		t.Error("expected ChangeFileInfo with generated id")
	}
}

func TestHookHandler_PreCreateRejected(t *testing.T) {
	handler := HookHandler(hooks.NewDispatcher(1 << 30))

	body := hookBody(t, &models.HookRequest{
		Type: models.HookPreCreate,
		Event: models.HookEvent{
			Upload: models.Upload{Size: 2_000_000_000},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.HookResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode hook response: %v", err)
	}
	if !resp.RejectUpload {
		t.Error("expected upload to be rejected")
	}
	if resp.HTTPResponse == nil || resp.HTTPResponse.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 directive, got %+v", resp.HTTPResponse)
	}
}

func TestHookHandler_UnknownType(t *testing.T) {
	handler := HookHandler(hooks.NewDispatcher(1 << 30))

	for _, hookType := range []models.HookType{"mid-upload", ""} {
		body := hookBody(t, &models.HookRequest{Type: hookType})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks", body)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("type %q: expected 400, got %d", hookType, rec.Code)
		}
		var errResp models.ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
			t.Fatalf("type %q: failed to decode error: %v", hookType, err)
		}
		if errResp.Code != "INVALID_HOOK_TYPE" {
			t.Errorf("type %q: expected INVALID_HOOK_TYPE, got %q", hookType, errResp.Code)
		}
	}
}

func TestHookHandler_InvalidJSON(t *testing.T) {
	handler := HookHandler(hooks.NewDispatcher(1 << 30))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHookHandler_MethodNotAllowed(t *testing.T) {
	handler := HookHandler(hooks.NewDispatcher(1 << 30))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hooks", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
