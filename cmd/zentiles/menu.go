package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/zentiles/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start ZenTiles with a mode picker menu",
	Long: `Start ZenTiles in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to select a mode.
Leaving a board with B or Esc returns to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Select
  Tab          - Switch mode on the scoreboard
  Q            - Quit

Examples:
  zentiles menu
  zentiles menu --db ./zentiles.db`,
	Run: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	logger, closeLog := tuiLogger(cfg)
	defer closeLog()

	store := openStore(cfg)

	runErr := tui.RunSession(tui.Options{
		Game:    cfg.Game,
		Runtime: terminalRuntime(),
		Store:   store,
		Logger:  logger,
	})

	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
