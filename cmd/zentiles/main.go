// zentiles is a calm memory game for the terminal and the browser, with an
// offline cache front for its web assets.
//
// Usage:
//
//	zentiles list              - List difficulty modes
//	zentiles play <mode>       - Play one mode
//	zentiles menu              - Start the menu to pick modes interactively
//	zentiles serve             - Start the HTTP (and optional SSH) server
//	zentiles scores [mode]     - Show bests and recent sessions
//	zentiles cache list        - Show cached asset generations
//	zentiles cache install     - Precache the asset manifest
//
// Global flags:
//
//	--config <path>      - Config file (default search: ~/.zentiles, ./configs)
//	--fps <rate>         - Set tick rate (default: 20)
//	--seed <value>       - Set RNG seed for reproducible boards
//	--db <path>          - Set database path (default from config)
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/core"
	"github.com/vovakirdan/zentiles/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zentiles",
	Short: "ZenTiles - a calm memory game for your terminal",
	Long: `ZenTiles is a tile-matching memory game. Flip two tiles at a time and
clear the board in as few moves as you can.

Available commands:
  list     - Show the difficulty modes
  play     - Play a mode directly
  menu     - Interactive mode picker
  serve    - Start the web server (and SSH with --ssh)
  scores   - View bests and recent sessions
  cache    - Inspect or install the offline asset cache

Examples:
  zentiles list
  zentiles play expert
  zentiles menu
  zentiles serve --http :8080 --ssh :23234
  zentiles scores beginner`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 20, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(cacheCmd)
}

// mustLoadConfig loads the configuration and applies the global flags.
func mustLoadConfig() config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer, cfg config.Config) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "zentiles",
	})
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else if cfg.Log.Level != "" {
		logger.Warn("unknown log level, using info", "level", cfg.Log.Level)
	}
	return logger
}

// tuiLogger logs to ~/.zentiles/zentiles.log while Bubble Tea owns the
// terminal. The returned close func is always non-nil.
func tuiLogger(cfg config.Config) (*log.Logger, func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		return newLogger(io.Discard, cfg), func() {}
	}
	dir := filepath.Join(home, ".zentiles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newLogger(io.Discard, cfg), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "zentiles.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return newLogger(io.Discard, cfg), func() {}
	}
	return newLogger(f, cfg), func() { f.Close() }
}

// openStore opens the database, or returns nil with a warning so the game
// still works without persistence.
func openStore(cfg config.Config) *storage.Store {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open database: %v\n", err)
		return nil
	}
	return store
}

// terminalRuntime sizes the runtime config from the controlling terminal.
func terminalRuntime() core.RuntimeConfig {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}
}
