package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	tusclient "github.com/lmeng-dev/tusgate/sdk/go"
)

func resumeCmd() *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "resume <session-url> <file>",
		Short: "Resume an interrupted upload",
		Long: `Resume an interrupted upload from the server's acknowledged offset.

Already-accepted bytes are never re-sent. If the session is already
complete, no data is transferred.

Example:
  tusgate-cli resume http://localhost:1080/files/abc backup.tar.gz`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionURL, filePath := args[0], args[1]

			client, err := newClient()
			if err != nil {
				return err
			}

			var onProgress tusclient.ProgressFunc
			if !noProgress {
				onProgress = printProgress
			}

			result, err := client.Resume(context.Background(), sessionURL, filePath, onProgress)
			if err != nil {
				fmt.Println()
				return err
			}

			fmt.Println()
			fmt.Printf("Upload complete: %s (%s)\n", result.URL, formatBytes(result.Size))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar")

	return cmd
}
