package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/games/zentiles"
	"github.com/vovakirdan/zentiles/internal/storage"
)

var (
	flagScoresLimit int
	flagScoresReset bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [mode]",
	Short: "Show bests and recent sessions",
	Long: `Display the fewest-moves record and the most recent cleared boards.
Without a mode every mode is shown.

Examples:
  zentiles scores
  zentiles scores expert --limit 20
  zentiles scores --reset`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of recent sessions to show")
	scoresCmd.Flags().BoolVar(&flagScoresReset, "reset", false, "Forget every best (session history is kept)")
}

func runScores(_ *cobra.Command, args []string) {
	modes := config.Modes()
	if len(args) == 1 {
		mode, err := config.ParseMode(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr, "Run 'zentiles list' to see available modes.")
			os.Exit(1)
		}
		modes = []config.Mode{mode}
	}

	cfg := mustLoadConfig()
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagScoresReset {
		if err := store.ClearRecords(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing records: %v\n", err)
			store.Close()
			os.Exit(1)
		}
		fmt.Println("Records cleared.")
		fmt.Println()
	}

	for i, mode := range modes {
		if i > 0 {
			fmt.Println()
		}
		if err := printScores(store, mode); err != nil {
			fmt.Fprintf(os.Stderr, "Error retrieving scores: %v\n", err)
			store.Close()
			os.Exit(1)
		}
	}
}

func printScores(store *storage.Store, mode config.Mode) error {
	fmt.Printf("%s\n\n", mode.Title())

	best, ok, err := store.BestMoves(mode)
	if err != nil {
		return err
	}
	sessions, err := store.RecentSessions(mode, flagScoresLimit)
	if err != nil {
		return err
	}

	if !ok && len(sessions) == 0 {
		fmt.Println("No boards cleared yet.")
		fmt.Printf("Play 'zentiles play %s' to set the first record!\n", mode)
		return nil
	}

	if ok {
		fmt.Printf("Best: %d moves\n", best)
	}
	stats, err := store.Stats(mode)
	if err != nil {
		return err
	}
	if stats.Games > 0 {
		fmt.Printf("Games: %d   Avg: %.1f moves   Fastest: %s\n",
			stats.Games, stats.AvgMoves, zentiles.FormatElapsed(stats.FastestSecs))
	}
	fmt.Println()

	fmt.Printf("  %-4s  %-6s  %-6s  %-6s  %s\n", "#", "Moves", "Time", "Record", "Date")
	fmt.Printf("  %-4s  %-6s  %-6s  %-6s  %s\n", "-", "-----", "----", "------", "----")
	for i, s := range sessions {
		record := ""
		if s.NewRecord {
			record = "yes"
		}
		fmt.Printf("  %-4d  %-6d  %-6s  %-6s  %s\n",
			i+1, s.Moves, zentiles.FormatElapsed(s.Seconds), record, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
