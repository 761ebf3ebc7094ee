package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete downloaded media, keeping one entry as a fallback",
	Long: `Clean removes the full media blobs for every wallpaper in the
stored manifest except one, which is kept so the display always has a
local fallback. Thumbnails and user wallpapers are never touched.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	manifest, err := service.StoredManifest()
	if err != nil {
		return fmt.Errorf("no stored manifest: %w", err)
	}

	deleted := service.DeleteDownloaded(context.Background(), manifest.All(), nil)

	if jsonOutput {
		printJSON(map[string]interface{}{"deleted": deleted})
		return nil
	}
	printSuccess("Deleted %d cached media entries", deleted)
	return nil
}
