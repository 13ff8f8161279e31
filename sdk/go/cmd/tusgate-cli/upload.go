package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	tusclient "github.com/lmeng-dev/tusgate/sdk/go"
)

func uploadCmd() *cobra.Command {
	var (
		metaPairs  []string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file",
		Long: `Upload a file and print its session URL.

The session URL can be passed to "resume" if the transfer is interrupted.

Examples:
  tusgate-cli upload document.pdf
  tusgate-cli upload video.mp4 --meta author=alice --meta project=demo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]

			info, err := os.Stat(filePath)
			if err != nil {
				return fmt.Errorf("file not found: %s", filePath)
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			meta, err := parseMetaPairs(metaPairs)
			if err != nil {
				return err
			}

			var onProgress tusclient.ProgressFunc
			if !noProgress {
				onProgress = printProgress
			}

			fmt.Printf("Uploading: %s (%s)\n", filePath, formatBytes(info.Size()))

			result, err := client.Upload(context.Background(), filePath, meta, onProgress)
			if err != nil {
				fmt.Println()
				return err
			}

			fmt.Println()
			fmt.Println(strings.Repeat("─", 50))
			fmt.Printf("Upload successful!\n")
			fmt.Println(strings.Repeat("─", 50))
			fmt.Printf("Session URL: %s\n", result.URL)
			fmt.Printf("Size:        %s\n", formatBytes(result.Size))
			fmt.Printf("SHA256:      %s\n", result.Checksum)
			fmt.Println(strings.Repeat("─", 50))

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&metaPairs, "meta", nil, "Metadata as key=value (repeatable)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar")

	return cmd
}

func parseMetaPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata pair %q, expected key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}

func printProgress(offset, total int64) {
	percentage := 0
	if total > 0 {
		percentage = int(float64(offset) / float64(total) * 100)
	}
	fmt.Printf("\r%s %3d%% (%s/%s)", progressBar(percentage), percentage, formatBytes(offset), formatBytes(total))
}

func progressBar(percentage int) string {
	width := 30
	filled := percentage * width / 100
	empty := width - filled
	return fmt.Sprintf("[%s%s]", strings.Repeat("█", filled), strings.Repeat("░", empty))
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
