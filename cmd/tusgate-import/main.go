// tusgate-import seeds an object bucket with local files, stamping the
// same stored metadata the upload pipeline writes at pre-create time so
// the files are indistinguishable from uploaded ones.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lmeng-dev/tusgate/internal/config"
	"github.com/lmeng-dev/tusgate/internal/metadata"
	"github.com/lmeng-dev/tusgate/internal/storage"
	"github.com/lmeng-dev/tusgate/internal/storage/s3"
)

const (
	toolVersion = "1.0.0"
	toolName    = "tusgate Import Tool"
)

// importOptions holds all configuration for an import operation
type importOptions struct {
	// Input mode (mutually exclusive)
	SourceFile string
	Directory  string
	Recursive  bool

	// File metadata
	DisplayName string

	// Behavior flags
	DryRun bool
	Quiet  bool
	JSON   bool
}

// importResult represents the outcome of a single file import
type importResult struct {
	SourcePath string `json:"source_path"`
	Filename   string `json:"filename"`
	UploadID   string `json:"upload_id"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

func main() {
	opts := &importOptions{}

	flag.StringVar(&opts.SourceFile, "source", "", "Path to source file (single file mode)")
	flag.StringVar(&opts.Directory, "directory", "", "Path to directory (batch mode)")
	flag.BoolVar(&opts.Recursive, "recursive", false, "Recursively scan subdirectories in batch mode")
	flag.StringVar(&opts.DisplayName, "filename", "", "Display filename (defaults to source filename, single file mode only)")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Preview only, no changes")
	flag.BoolVar(&opts.Quiet, "quiet", false, "Minimal output for scripting")
	flag.BoolVar(&opts.JSON, "json", false, "JSON output format")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", toolName, toolVersion)
		os.Exit(0)
	}

	if (opts.SourceFile == "") == (opts.Directory == "") {
		fatal("exactly one of -source or -directory is required")
	}
	if opts.DisplayName != "" && opts.Directory != "" {
		fatal("-filename is only valid with -source")
	}

	// Bucket settings come from the same environment the server uses
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fatal("invalid configuration: %v", err)
	}

	ctx := context.Background()
	store, err := s3.New(ctx, s3.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		PathStyle:       cfg.S3PathStyle,
		UseSSL:          cfg.S3UseSSL,
	})
	if err != nil {
		fatal("connecting to object storage: %v", err)
	}

	paths, err := collectPaths(opts)
	if err != nil {
		fatal("%v", err)
	}
	if len(paths) == 0 {
		fatal("no files to import")
	}

	start := time.Now()
	var results []*importResult
	failed := 0
	for _, path := range paths {
		result := importFile(ctx, store, opts, path)
		results = append(results, result)
		if !result.Success {
			failed++
		}
		if !opts.Quiet && !opts.JSON {
			if result.Success {
				fmt.Printf("imported %s -> %s (%s, %d bytes)\n", result.SourcePath, result.UploadID, result.MimeType, result.Size)
			} else {
				fmt.Fprintf(os.Stderr, "failed %s: %s\n", result.SourcePath, result.Error)
			}
		}
	}

	if opts.JSON {
		out := struct {
			TotalFiles int             `json:"total_files"`
			Successful int             `json:"successful"`
			Failed     int             `json:"failed"`
			TotalTime  string          `json:"total_time"`
			Results    []*importResult `json:"results"`
		}{
			TotalFiles: len(results),
			Successful: len(results) - failed,
			Failed:     failed,
			TotalTime:  time.Since(start).String(),
			Results:    results,
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			fatal("encoding output: %v", err)
		}
	} else if !opts.Quiet {
		fmt.Printf("done: %d imported, %d failed in %s\n", len(results)-failed, failed, time.Since(start).Round(time.Millisecond))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// collectPaths resolves the input mode into a list of regular files.
func collectPaths(opts *importOptions) ([]string, error) {
	if opts.SourceFile != "" {
		info, err := os.Stat(opts.SourceFile)
		if err != nil {
			return nil, fmt.Errorf("source file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("source %s is a directory, use -directory", opts.SourceFile)
		}
		return []string{opts.SourceFile}, nil
	}

	var paths []string
	err := filepath.WalkDir(opts.Directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != opts.Directory && !opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning directory: %w", err)
	}
	return paths, nil
}

// importFile uploads one file, mirroring what the pre-create hook does:
// a fresh upload id becomes the object key and the full stored metadata
// set is attached.
func importFile(ctx context.Context, store storage.ObjectStore, opts *importOptions, path string) *importResult {
	result := &importResult{SourcePath: path}

	filename := opts.DisplayName
	if filename == "" {
		filename = filepath.Base(path)
	}
	result.Filename = filename

	info, err := os.Stat(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Size = info.Size()

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("detecting content type: %v", err)
		return result
	}
	result.MimeType = mtype.String()

	uploadID := uuid.NewString()
	result.UploadID = uploadID

	storedMeta := storedMetadataFor(filename, mtype.String(), uploadID)

	if opts.DryRun {
		result.Success = true
		return result
	}

	file, err := os.Open(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer file.Close()

	if err := store.Put(ctx, uploadID, file, info.Size(), mtype.String(), storedMeta); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	return result
}

// storedMetadataFor builds the metadata set for an imported file. Non-ASCII
// filenames are base64-encoded first, as if they had arrived on the wire,
// so the stored form stays ASCII-safe and carries filename_encoding=base64.
func storedMetadataFor(filename, mimeType, uploadID string) map[string]string {
	var wire map[string]string
	storageFilename := filename
	if !isASCII(filename) {
		encoded := base64.StdEncoding.EncodeToString([]byte(filename))
		wire = map[string]string{"filename": encoded}
		storageFilename = encoded
	}
	decoded := map[string]string{
		"filename": filename,
		"filetype": mimeType,
		"type":     mimeType,
	}
	return metadata.BuildStoredMetadata(wire, decoded, storageFilename, uploadID)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
