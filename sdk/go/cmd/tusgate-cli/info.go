package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <session-url>",
		Short: "Show the state of an upload session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			info, err := client.GetUploadInfo(context.Background(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Offset:   %s\n", formatBytes(info.Offset))
			fmt.Printf("Length:   %s\n", formatBytes(info.Length))
			fmt.Printf("Complete: %v\n", info.Complete)
			if info.Expires != "" {
				fmt.Printf("Expires:  %s\n", info.Expires)
			}
			if verbose && info.MetadataHeader != "" {
				fmt.Printf("Metadata: %s\n", info.MetadataHeader)
			}
			return nil
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session-url>",
		Short: "Terminate an upload session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if !client.Delete(context.Background(), args[0]) {
				return fmt.Errorf("failed to delete upload session %s", args[0])
			}
			fmt.Println("Upload session deleted.")
			return nil
		},
	}
}
