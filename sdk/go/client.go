// Package tusclient implements a client for tus resumable uploads:
// chunked transfers with per-chunk retry, resume from the server-reported
// offset, and streamed sha256 integrity checksums.
package tusclient

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// tusVersion is the protocol version sent with every request.
	tusVersion = "1.0.0"

	userAgent = "tusgate-go-client/1.0.0"

	defaultChunkSize  = 4 * 1024 * 1024
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Config configures a Client. Zero values select sensible defaults.
type Config struct {
	// Endpoint is the upload creation URL of the tus server. Required.
	Endpoint string

	// ChunkSize is the maximum number of bytes sent per append request.
	// Defaults to 4 MiB.
	ChunkSize int64

	// Timeout is the per-request network timeout. Defaults to 30s.
	// Ignored when HTTPClient is set.
	Timeout time.Duration

	// MaxRetries is the number of attempts per chunk append before the
	// transfer fails. Defaults to 3.
	MaxRetries int

	// RetryDelay is the base delay between chunk retries. The actual
	// delay grows linearly with the attempt number. Defaults to 1s.
	RetryDelay time.Duration

	// HTTPClient overrides the default HTTP client when set.
	HTTPClient *http.Client
}

// Client is a tus upload client. It is safe for concurrent use as long
// as each transfer session is driven by a single goroutine.
type Client struct {
	endpoint   *url.URL
	chunkSize  int64
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
}

// NewClient creates a tus client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, &ValidationError{Field: "Endpoint", Message: "is required"}
	}

	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, &ValidationError{Field: "Endpoint", Message: "must be a valid URL"}
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, &ValidationError{Field: "Endpoint", Message: "must use http or https protocol"}
	}
	if endpoint.Host == "" {
		return nil, &ValidationError{Field: "Endpoint", Message: "must include a host"}
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint:   endpoint,
		chunkSize:  chunkSize,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		httpClient: httpClient,
	}, nil
}

// Endpoint returns the configured creation endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// resolveLocation resolves a possibly relative upload URL against the
// configured endpoint.
func (c *Client) resolveLocation(location string) (string, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return c.endpoint.ResolveReference(ref).String(), nil
}

// setCommonHeaders adds the headers every tus request carries.
func setCommonHeaders(req *http.Request) {
	req.Header.Set("Tus-Resumable", tusVersion)
	req.Header.Set("User-Agent", userAgent)
}
