package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/zentiles/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the difficulty modes",
	Long:  `Shows every difficulty mode with its board size.`,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	modes := config.Modes()

	fmt.Println("Available modes:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, m := range modes {
		if len(m) > maxIDLen {
			maxIDLen = len(m)
		}
	}

	fmt.Printf("  %-*s  %-5s  %-5s  %s\n", maxIDLen, "ID", "Board", "Pairs", "Title")
	fmt.Printf("  %-*s  %-5s  %-5s  %s\n", maxIDLen, "--", "-----", "-----", "-----")

	for _, m := range modes {
		size := fmt.Sprintf("%dx%d", m.GridSize(), m.GridSize())
		fmt.Printf("  %-*s  %-5s  %-5d  %s\n", maxIDLen, m, size, m.TotalPairs(), m.Title())
	}

	fmt.Println()
	fmt.Println("Run 'zentiles play <id>' to play a mode.")
}
