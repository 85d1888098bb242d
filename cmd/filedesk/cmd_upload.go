package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadCategory string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a supporting document",
	Long: `Upload a document to the backend's file store and print the URL the
backend assigned to it. The URL goes into application payloads that
reference supporting documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadCategory, "category", "c", "", "document category (pan, gst, address-proof, ...)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	result, err := cli.client.UploadWithTimeout(cmd.Context(), f, filepath.Base(path), uploadCategory, cli.cfg.API.UploadTimeout)
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %s\n", result.OriginalName)
	fmt.Printf("URL: %s\n", result.FileURL)
	return nil
}
