package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/zentiles/internal/offline"
	"github.com/vovakirdan/zentiles/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or install the offline asset cache",
	Long: `Manage the cache generations kept in the database.

Examples:
  zentiles cache list
  zentiles cache install`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cache generations and their entries",
	Args:  cobra.NoArgs,
	Run:   runCacheList,
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Precache the asset manifest and activate it",
	Long: `Fetch every asset of the manifest from the origin into a new cache
generation, then delete all older generations. Nothing is stored if any
asset fails.`,
	Args: cobra.NoArgs,
	Run:  runCacheInstall,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheInstallCmd)
}

func runCacheList(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := printCaches(context.Background(), store.CacheStorage(), cfg.Offline.CacheName()); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading caches: %v\n", err)
		store.Close()
		os.Exit(1)
	}
}

func printCaches(ctx context.Context, caches offline.Storage, current string) error {
	names, err := caches.Keys(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No cache generations stored.")
		fmt.Println("Run 'zentiles cache install' to precache the assets.")
		return nil
	}

	for _, name := range names {
		c, err := caches.Open(ctx, name)
		if err != nil {
			return err
		}
		keys, err := c.Keys(ctx)
		if err != nil {
			return err
		}

		marker := ""
		if name == current {
			marker = " (current)"
		}
		fmt.Printf("%s%s - %d entries\n", name, marker, len(keys))
		for _, k := range keys {
			fmt.Printf("  %s\n", k)
		}
	}
	return nil
}

func runCacheInstall(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	logger := newLogger(os.Stderr, cfg)

	if cfg.Offline.Backend == "memory" {
		fmt.Fprintln(os.Stderr, "Error: the memory cache backend does not outlive this command")
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	container, err := offline.NewContainer(cfg.Offline.Origin, nil, logger)
	var worker *offline.Worker
	if err == nil {
		worker, err = installWorker(ctx, cfg, store, container, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error installing cache: %v\n", err)
		store.Close()
		os.Exit(1)
	}

	entries, err := worker.Entries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cache: %v\n", err)
		store.Close()
		os.Exit(1)
	}
	fmt.Printf("Installed %s from %s (%d entries)\n", worker.Name(), cfg.Offline.Origin, len(entries))
}
