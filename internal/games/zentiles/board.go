// Package zentiles implements the ZenTiles pair-finding game: board
// generation, turn state, match resolution and best-score tracking.
package zentiles

import (
	"fmt"
	"math/rand"

	"github.com/vovakirdan/zentiles/internal/config"
)

// TileState is the visibility state of a tile.
type TileState int

const (
	TileHidden TileState = iota
	TileFlipped
	TileMatched
)

// String returns the state name used in snapshots.
func (s TileState) String() string {
	switch s {
	case TileHidden:
		return "hidden"
	case TileFlipped:
		return "flipped"
	case TileMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// Tile is one cell of the board.
type Tile struct {
	Symbol string
	State  TileState
	Wrong  bool // Transient mismatch highlight on a flipped tile
}

// Board is the ordered tile grid, row-major.
type Board struct {
	Mode  config.Mode
	Tiles []Tile
}

// NewBoard deals a fresh board for mode: totalPairs distinct symbols drawn
// from pool without replacement, each placed twice, uniformly shuffled.
// The pool must hold at least mode.TotalPairs() distinct symbols.
func NewBoard(mode config.Mode, pool []string, rng *rand.Rand) Board {
	pairs := mode.TotalPairs()
	if len(pool) < pairs {
		panic(fmt.Sprintf("zentiles: symbol pool of %d cannot fill %d pairs", len(pool), pairs))
	}

	symbols := shuffled(pool, rng)[:pairs]
	deck := make([]string, 0, pairs*2)
	deck = append(deck, symbols...)
	deck = append(deck, symbols...)
	deck = shuffled(deck, rng)

	tiles := make([]Tile, len(deck))
	for i, s := range deck {
		tiles[i] = Tile{Symbol: s}
	}
	return Board{Mode: mode, Tiles: tiles}
}

// shuffled returns a Fisher-Yates shuffled copy of in.
func shuffled(in []string, rng *rand.Rand) []string {
	out := append([]string(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Cols returns the board's row length.
func (b Board) Cols() int {
	return b.Mode.GridSize()
}

// Len returns the number of tiles.
func (b Board) Len() int {
	return len(b.Tiles)
}
