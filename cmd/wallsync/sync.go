package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var syncRedownload bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the local cache with the remote manifest",
	Long: `Sync fetches the wallpaper manifest, prunes entries removed
upstream, downloads the first image and first video in full, and fills
in new or changed thumbnails.`,
	Example: `  wallsync sync
  wallsync sync --redownload`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncRedownload, "redownload", false,
		"Also re-fetch thumbnails missing from the cache")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		printWarning("\nSync interrupted, cancelling...")
		cancel()
	}()

	start := time.Now()
	res := service.Sync(ctx)
	duration := time.Since(start).Round(time.Millisecond)

	redownloaded := 0
	if syncRedownload && res.OK {
		for _, r := range service.RedownloadMissing(ctx, 0) {
			if r.Err == nil && r.Value.OK {
				redownloaded++
			}
		}
	}

	if jsonOutput {
		out := map[string]interface{}{
			"success":  res.OK,
			"duration": duration.String(),
		}
		if res.Err != "" {
			out["error"] = res.Err
		}
		if syncRedownload {
			out["redownloaded"] = redownloaded
		}
		printJSON(out)
	}

	if !res.OK {
		printError("Sync failed: %s", res.Err)
		os.Exit(1)
	}

	if !jsonOutput {
		printSuccess("Sync completed in %s", duration)
		if syncRedownload {
			printSuccess("Redownloaded %d missing thumbnails", redownloaded)
		}
	}
	return nil
}
