package zentiles

// TileView is the externally visible form of a tile.
// Hidden tiles do not reveal their symbol.
type TileView struct {
	Symbol string `json:"symbol,omitempty"`
	State  string `json:"state"`
	Wrong  bool   `json:"wrong,omitempty"`
}

// Snapshot captures the visible game state for renderers and clients.
type Snapshot struct {
	Generation   uint64      `json:"generation"`
	Mode         string      `json:"mode"`
	Cols         int         `json:"cols"`
	Tiles        []TileView  `json:"tiles"`
	Moves        int         `json:"moves"`
	Elapsed      int         `json:"elapsed"`
	MatchedPairs int         `json:"matched_pairs"`
	TotalPairs   int         `json:"total_pairs"`
	Best         *int        `json:"best"`
	Locked       bool        `json:"locked"`
	Won          bool        `json:"won"`
	Summary      *WinSummary `json:"summary,omitempty"`
}

// Snapshot returns the current visible state.
func (g *Game) Snapshot() Snapshot {
	tiles := make([]TileView, len(g.board.Tiles))
	for i, t := range g.board.Tiles {
		v := TileView{State: t.State.String(), Wrong: t.Wrong}
		if t.State != TileHidden {
			v.Symbol = t.Symbol
		}
		tiles[i] = v
	}

	snap := Snapshot{
		Generation:   g.generation,
		Mode:         string(g.mode),
		Cols:         g.board.Cols(),
		Tiles:        tiles,
		Moves:        g.moves,
		Elapsed:      g.elapsed,
		MatchedPairs: g.matchedPairs,
		Locked:       g.locked,
		Won:          g.phase == PhaseWon,
	}
	if g.mode != "" {
		snap.TotalPairs = g.mode.TotalPairs()
	}
	if best, ok := g.Best(); ok {
		snap.Best = &best
	}
	if s, ok := g.Summary(); ok {
		snap.Summary = &s
	}
	return snap
}
