package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/platform/tui"
)

var playCmd = &cobra.Command{
	Use:   "play <mode>",
	Short: "Play a mode",
	Long: `Deal a board for the specified mode and start playing.

Controls:
  Arrows/hjkl  - Move the cursor
  Enter/Space  - Flip the tile under the cursor
  R            - Play again (after clearing the board)
  Ctrl+S       - Save a screenshot
  Q/Ctrl+C     - Quit

Modes:
  beginner - 4x4 board, 8 pairs
  expert   - 6x6 board, 18 pairs

Examples:
  zentiles play beginner
  zentiles play expert --seed 7`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func runPlay(_ *cobra.Command, args []string) {
	mode, err := config.ParseMode(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'zentiles list' to see available modes.")
		os.Exit(1)
	}

	cfg := mustLoadConfig()
	logger, closeLog := tuiLogger(cfg)
	defer closeLog()

	store := openStore(cfg)

	runErr := tui.Run(mode, tui.Options{
		Game:    cfg.Game,
		Runtime: terminalRuntime(),
		Store:   store,
		Logger:  logger,
	})

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}
}
