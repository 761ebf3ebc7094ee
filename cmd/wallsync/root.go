package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/buildwithkt/wallsync/internal/config"
	"github.com/buildwithkt/wallsync/internal/events"
	"github.com/buildwithkt/wallsync/internal/services/sync"
	"github.com/buildwithkt/wallsync/internal/settings"
	"github.com/buildwithkt/wallsync/internal/store"
	"github.com/buildwithkt/wallsync/internal/transport"
)

var (
	cfg           *config.Config
	logger        *events.Logger
	conns         *store.ConnManager
	assets        *store.AssetStore
	settingsStore *settings.Store
	service       *sync.Service

	configPath string
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "wallsync",
	Short: "Wallpaper asset cache and manifest synchronizer",
	Long: `Wallsync keeps a local cache of wallpaper thumbnails and media in
step with a remote manifest. Sync is incremental: only entries that are
new, changed, or missing locally are downloaded, and entries removed
upstream are pruned from the cache.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if conns != nil {
			_ = conns.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.NewLoader(configPath).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	events.SetDefault(logger)

	conns = store.NewConnManager(cfg.Storage.CachePath, logger)
	assets = store.NewAssetStore(conns, logger)

	settingsStore, err = settings.NewStore(cfg.Storage.SettingsDir, logger)
	if err != nil {
		return fmt.Errorf("create settings store: %w", err)
	}

	client := transport.NewClient(&cfg.API, logger)
	fetcher := transport.NewFetcher(client, assets, logger)
	service = sync.NewService(client, fetcher, assets, settingsStore, &cfg.Sync, logger)

	return nil
}

func printSuccess(format string, args ...interface{}) {
	_, _ = color.New(color.FgGreen).Fprintf(os.Stderr, format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	_, _ = color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError("encode output: %v", err)
		return
	}
	fmt.Println(string(data))
}
