// Package s3 implements the ObjectStore interface for AWS S3 and
// S3-compatible services such as MinIO, which tusd's s3store writes to.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lmeng-dev/tusgate/internal/storage"
)

// multipartPartSize is the part size for streaming uploads (S3 minimum is 5MB).
const multipartPartSize = 5 * 1024 * 1024

// Config holds connection settings for the object store.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Custom endpoint for MinIO or other S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool // Use path-style addressing (required for MinIO)
	UseSSL          bool
}

// Store implements storage.ObjectStore against S3-compatible storage.
type Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// New creates a Store and verifies bucket access with a HEAD request.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	var optFuncs []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFuncs = append(optFuncs, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFuncs = append(optFuncs, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFuncs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			scheme := "http"
			if cfg.UseSSL {
				scheme = "https"
			}
			endpoint = scheme + "://" + endpoint
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = multipartPartSize
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	slog.Info("object store initialized",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.PathStyle,
	)

	return &Store{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
	}, nil
}

// validateKey rejects keys that could traverse paths or smuggle encodings.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key not allowed")
	}
	if strings.ContainsRune(key, '\x00') {
		return fmt.Errorf("null bytes not allowed in key")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("path traversal not allowed: %s", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == "/" {
		return fmt.Errorf("invalid key: %s", key)
	}
	return nil
}

// Stat returns the object's current metadata.
func (s *Store) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, storage.NewError("Stat", key, err)
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, storage.NewError("Stat", key, classify(err))
	}

	info := &storage.ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        strings.Trim(aws.ToString(out.ETag), `"`),
		Metadata:    out.Metadata,
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}

	return info, nil
}

// Get returns a reader for the object body.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, storage.NewError("Get", key, err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, storage.NewError("Get", key, classify(err))
	}

	return out.Body, nil
}

// Put streams an object into the bucket using multipart upload so large
// imports never load fully into memory.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) error {
	if err := validateKey(key); err != nil {
		return storage.NewError("Put", key, err)
	}

	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     r,
		Metadata: metadata,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return storage.NewError("Put", key, classify(err))
	}

	slog.Debug("object stored", "key", key, "size", size, "content_type", contentType)
	return nil
}

// Delete removes an object. S3 does not error on missing objects.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return storage.NewError("Delete", key, err)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storage.NewError("Delete", key, classify(err))
	}

	slog.Debug("object deleted", "key", key)
	return nil
}

// Ping verifies the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return storage.NewError("Ping", s.bucket, fmt.Errorf("%w: %v", storage.ErrUnavailable, err))
	}
	return nil
}

// classify maps backend failures onto the package sentinels so handlers
// can pick a response status without knowing about AWS error types.
func classify(err error) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return err
}

// isConnectionError reports whether the failure was transport-level rather
// than an API response.
func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
