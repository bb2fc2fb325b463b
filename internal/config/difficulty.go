package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for unrecognised mode names.
var ErrUnknownMode = errors.New("config: unknown mode")

// Mode is a difficulty preset selecting the board size.
type Mode string

const (
	ModeBeginner Mode = "beginner" // 4x4, 8 pairs
	ModeExpert   Mode = "expert"   // 6x6, 18 pairs
)

// Modes returns every mode in menu order.
func Modes() []Mode {
	return []Mode{ModeBeginner, ModeExpert}
}

// ParseMode resolves a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBeginner:
		return ModeBeginner, nil
	case ModeExpert:
		return ModeExpert, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
}

// GridSize returns the board's side length.
func (m Mode) GridSize() int {
	if m == ModeExpert {
		return 6
	}
	return 4
}

// TotalPairs returns the number of pairs on the board.
func (m Mode) TotalPairs() int {
	n := m.GridSize()
	return n * n / 2
}

// Title returns a display name for the mode.
func (m Mode) Title() string {
	switch m {
	case ModeExpert:
		return "Expert (6x6)"
	default:
		return "Beginner (4x4)"
	}
}

// BestKey returns the persistence key for the mode's best move count.
func (m Mode) BestKey() string {
	return "zentiles_best_" + string(m)
}

// MaxPairs returns the largest number of pairs any mode needs,
// i.e. the minimum size of the symbol pool.
func MaxPairs() int {
	max := 0
	for _, m := range Modes() {
		if p := m.TotalPairs(); p > max {
			max = p
		}
	}
	return max
}
