// Package tui provides the Bubble Tea front end for ZenTiles.
// It runs the board, the mode menu and the scoreboard, locally or per SSH
// session through Wish.
package tui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to drive the game's timed transitions.
// Each board has its own tick loop; ticks of a left board are dropped.
type TickMsg struct {
	At   time.Time
	loop uint64
}

var tickLoops atomic.Uint64

func newTickLoop() uint64 {
	return tickLoops.Add(1)
}

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int, loop uint64) tea.Cmd {
	if tickRate <= 0 {
		tickRate = 20
	}
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{At: t, loop: loop}
	})
}
