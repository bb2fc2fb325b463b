package zentiles

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/core"
)

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseIdle    Phase = iota // No board dealt, or stopped
	PhasePlaying              // Accepting selections
	PhaseCleared              // Last pair matched, win summary pending
	PhaseWon                  // Win summary available
)

// Timing holds the pacing constants of match resolution.
type Timing struct {
	Match time.Duration // Detection to "matched"
	Wrong time.Duration // Detection to mismatch highlight
	Reset time.Duration // Detection to mismatch flip-back
	Win   time.Duration // Last match to win summary
}

// DefaultTiming returns the standard pacing.
func DefaultTiming() Timing {
	return Timing{
		Match: 380 * time.Millisecond,
		Wrong: 200 * time.Millisecond,
		Reset: 950 * time.Millisecond,
		Win:   600 * time.Millisecond,
	}
}

// TimingFromConfig converts the configured delays.
func TimingFromConfig(cfg config.GameConfig) Timing {
	return Timing{
		Match: cfg.MatchDelay,
		Wrong: cfg.WrongDelay,
		Reset: cfg.ResetDelay,
		Win:   cfg.WinDelay,
	}
}

// Options configures a Game.
type Options struct {
	Symbols []string   // Symbol pool; defaults to config.ZenSymbols
	Timing  Timing     // Zero value means DefaultTiming
	Clock   core.Clock // Defaults to the system clock
	Records Records    // Defaults to in-memory records
	Seed    int64      // 0 means time based
}

// WinSummary is the outcome of a cleared board.
type WinSummary struct {
	Mode      config.Mode `json:"mode"`
	Moves     int         `json:"moves"`
	Elapsed   int         `json:"elapsed"` // Seconds
	Best      int         `json:"best"`
	NewRecord bool        `json:"new_record"`
	SaveErr   error       `json:"-"` // Set if the new record could not be persisted
}

// Game is the ZenTiles controller. It owns one board at a time together with
// its turn state and session stats.
//
// Game is not safe for concurrent use. Timed transitions are queued on an
// internal scheduler and only happen inside Advance, so the host decides
// when (and on which goroutine) they run.
type Game struct {
	symbols []string
	timing  Timing
	sched   *core.Scheduler
	records Records
	rng     *rand.Rand

	mode       config.Mode
	board      Board
	generation uint64
	phase      Phase

	first  int // -1 when empty
	second int
	locked bool

	moves        int
	elapsed      int
	matchedPairs int
	ticker       core.EventID

	best    int
	hasBest bool
	summary *WinSummary
}

// New creates a Game. No board is dealt until NewGame.
func New(opts Options) (*Game, error) {
	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = config.ZenSymbols
	}
	if err := checkPool(symbols); err != nil {
		return nil, err
	}
	timing := opts.Timing
	if timing == (Timing{}) {
		timing = DefaultTiming()
	}
	records := opts.Records
	if records == nil {
		records = NewMemoryRecords()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Game{
		symbols: append([]string(nil), symbols...),
		timing:  timing,
		sched:   core.NewScheduler(opts.Clock),
		records: records,
		rng:     rand.New(rand.NewSource(seed)),
		first:   -1,
		second:  -1,
	}, nil
}

// ErrSymbolPool is returned by New when the pool cannot fill every mode.
var ErrSymbolPool = errors.New("zentiles: invalid symbol pool")

func checkPool(symbols []string) error {
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if seen[s] {
			return fmt.Errorf("%w: duplicate symbol %q", ErrSymbolPool, s)
		}
		seen[s] = true
	}
	if len(seen) < config.MaxPairs() {
		return fmt.Errorf("%w: %d symbols, need %d", ErrSymbolPool, len(seen), config.MaxPairs())
	}
	return nil
}

// NewGame deals a new board for mode and starts the elapsed-time ticker.
// Every event pending from the previous board is cancelled.
func (g *Game) NewGame(mode config.Mode) {
	g.sched.CancelAll()
	g.generation++

	g.mode = mode
	g.board = NewBoard(mode, g.symbols, g.rng)
	g.phase = PhasePlaying
	g.resetTurn()
	g.moves = 0
	g.elapsed = 0
	g.matchedPairs = 0
	g.summary = nil
	g.best, g.hasBest = g.loadBest(mode)

	gen := g.generation
	g.ticker = g.sched.Every(time.Second, func() {
		if gen == g.generation && g.phase == PhasePlaying {
			g.elapsed++
		}
	})
}

// Restart deals a new board in the current mode.
func (g *Game) Restart() {
	mode := g.mode
	if mode == "" {
		mode = config.ModeBeginner
	}
	g.NewGame(mode)
}

// Stop abandons the current board: the timer stops and pending
// transitions are dropped.
func (g *Game) Stop() {
	g.sched.CancelAll()
	g.generation++
	g.phase = PhaseIdle
	g.resetTurn()
}

// Advance runs every timed transition that is due on the game's clock.
func (g *Game) Advance() {
	g.sched.Run()
}

// Select flips the tile at index. It reports whether the selection was
// accepted; it is a no-op while the board is locked, for the tile already
// selected, for flipped or matched tiles, and for out-of-range indices.
func (g *Game) Select(index int) bool {
	if g.phase != PhasePlaying || g.locked {
		return false
	}
	if index < 0 || index >= g.board.Len() || index == g.first {
		return false
	}
	tile := &g.board.Tiles[index]
	if tile.State != TileHidden {
		return false
	}

	tile.State = TileFlipped

	if g.first < 0 {
		g.first = index
		return true
	}

	g.second = index
	g.locked = true
	g.moves++
	g.evaluate()
	return true
}

// evaluate resolves the current pair after the pacing delays.
func (g *Game) evaluate() {
	a, b := g.first, g.second
	gen := g.generation

	if g.board.Tiles[a].Symbol == g.board.Tiles[b].Symbol {
		g.sched.After(g.timing.Match, func() {
			if gen != g.generation {
				return
			}
			g.board.Tiles[a].State = TileMatched
			g.board.Tiles[b].State = TileMatched
			g.matchedPairs++
			g.resetTurn()

			if g.matchedPairs == g.board.Mode.TotalPairs() {
				g.sched.Cancel(g.ticker)
				g.phase = PhaseCleared
				g.sched.After(g.timing.Win, func() {
					if gen == g.generation {
						g.finish()
					}
				})
			}
		})
		return
	}

	g.sched.After(g.timing.Wrong, func() {
		if gen != g.generation {
			return
		}
		g.board.Tiles[a].Wrong = true
		g.board.Tiles[b].Wrong = true
	})
	g.sched.After(g.timing.Reset, func() {
		if gen != g.generation {
			return
		}
		for _, i := range [2]int{a, b} {
			g.board.Tiles[i].State = TileHidden
			g.board.Tiles[i].Wrong = false
		}
		g.resetTurn()
	})
}

func (g *Game) resetTurn() {
	g.first = -1
	g.second = -1
	g.locked = false
}

// finish runs the win sequence: compare with the stored best and persist a
// strictly lower move count.
func (g *Game) finish() {
	best, ok := g.loadBest(g.mode)
	summary := &WinSummary{
		Mode:    g.mode,
		Moves:   g.moves,
		Elapsed: g.elapsed,
		Best:    best,
	}

	if !ok || g.moves < best {
		summary.NewRecord = true
		summary.Best = g.moves
		summary.SaveErr = g.records.SetBestMoves(g.mode, g.moves)
	}

	g.best, g.hasBest = summary.Best, true
	g.summary = summary
	g.phase = PhaseWon
}

// loadBest reads the stored best; read failures count as "no record".
func (g *Game) loadBest(mode config.Mode) (int, bool) {
	best, ok, err := g.records.BestMoves(mode)
	if err != nil || !ok {
		return 0, false
	}
	return best, true
}

// Mode returns the active difficulty.
func (g *Game) Mode() config.Mode {
	return g.mode
}

// Phase returns the session phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Tile returns the tile at index.
func (g *Game) Tile(index int) Tile {
	return g.board.Tiles[index]
}

// Len returns the number of tiles on the board.
func (g *Game) Len() int {
	return g.board.Len()
}

// Cols returns the board's row length.
func (g *Game) Cols() int {
	return g.board.Cols()
}

// Moves returns the number of completed selection pairs.
func (g *Game) Moves() int {
	return g.moves
}

// Elapsed returns whole seconds since the board was dealt.
func (g *Game) Elapsed() int {
	return g.elapsed
}

// MatchedPairs returns the number of resolved pairs.
func (g *Game) MatchedPairs() int {
	return g.matchedPairs
}

// Locked reports whether a pair is awaiting resolution.
func (g *Game) Locked() bool {
	return g.locked
}

// Best returns the best move count shown for the active mode.
func (g *Game) Best() (int, bool) {
	return g.best, g.hasBest
}

// Summary returns the win summary once the win sequence has run.
func (g *Game) Summary() (WinSummary, bool) {
	if g.summary == nil {
		return WinSummary{}, false
	}
	return *g.summary, true
}

// Pending returns the number of queued timed transitions, ticker included.
func (g *Game) Pending() int {
	return g.sched.Pending()
}

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
