package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildwithkt/wallsync/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored manifest and cache contents",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var version string
	manifest, err := service.StoredManifest()
	if err == nil {
		version = manifest.Version
	}

	keys := assets.ListKeys(ctx)
	if keys == nil {
		printWarning("Asset cache unavailable")
	}

	thumbs, media, failed := 0, 0, 0
	for _, key := range keys {
		entry := assets.Get(ctx, key)
		if entry == nil {
			continue
		}
		if entry.Status == models.StatusFailed {
			failed++
			continue
		}
		if entry.Kind == models.KindThumb {
			thumbs++
		} else {
			media++
		}
	}
	userWalls := assets.ListUserWallpapers(ctx)

	if jsonOutput {
		printJSON(map[string]interface{}{
			"manifest_version": version,
			"thumbnails":       thumbs,
			"media":            media,
			"failed":           failed,
			"user_wallpapers":  len(userWalls),
		})
		return nil
	}

	if version == "" {
		printWarning("No manifest stored yet, run 'wallsync sync' first")
	} else {
		fmt.Printf("Manifest version: %s\n", version)
	}
	fmt.Printf("Cached thumbnails: %d\n", thumbs)
	fmt.Printf("Cached media:      %d\n", media)
	fmt.Printf("User wallpapers:   %d\n", len(userWalls))
	if failed > 0 {
		printWarning("Failed downloads:  %d", failed)
	}
	return nil
}
