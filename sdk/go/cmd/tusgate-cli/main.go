// tusgate-cli is a command-line client for tus resumable uploads.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	tusclient "github.com/lmeng-dev/tusgate/sdk/go"
)

var (
	// Global flags
	endpoint   string
	chunkSize  int64
	maxRetries int
	retryDelay time.Duration
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tusgate-cli",
		Short: "tusgate CLI - resumable uploads from the command line",
		Long: `tusgate CLI uploads files with the tus resumable upload protocol.

Interrupted uploads can be resumed from the server's acknowledged offset
without re-sending accepted bytes.

Configuration:
  Set TUSGATE_ENDPOINT, or use the --endpoint flag.

Examples:
  tusgate-cli upload backup.tar.gz
  tusgate-cli resume http://localhost:1080/files/abc backup.tar.gz
  tusgate-cli info http://localhost:1080/files/abc
  tusgate-cli rm http://localhost:1080/files/abc`,
	}

	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", os.Getenv("TUSGATE_ENDPOINT"), "tus server endpoint (or TUSGATE_ENDPOINT env)")
	rootCmd.PersistentFlags().Int64Var(&chunkSize, "chunk-size", 4*1024*1024, "Bytes per append request")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "retries", 3, "Attempts per chunk before giving up")
	rootCmd.PersistentFlags().DurationVar(&retryDelay, "retry-delay", time.Second, "Base delay between chunk retries")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(resumeCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(rmCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds a client from the global flags.
func newClient() (*tusclient.Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("server endpoint is required (use --endpoint or TUSGATE_ENDPOINT environment variable)")
	}
	return tusclient.NewClient(tusclient.Config{
		Endpoint:   endpoint,
		ChunkSize:  chunkSize,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
	})
}
