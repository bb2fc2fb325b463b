package zentiles

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/core"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T, seed int64, records Records) (*Game, *core.ManualClock) {
	t.Helper()
	clock := core.NewManualClock(epoch)
	g, err := New(Options{Clock: clock, Records: records, Seed: seed})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return g, clock
}

// step advances the clock and runs due transitions.
func step(g *Game, clock *core.ManualClock, d time.Duration) {
	clock.Advance(d)
	g.Advance()
}

// findPair returns two hidden tiles with the same symbol.
func findPair(t *testing.T, g *Game) (int, int) {
	t.Helper()
	seen := make(map[string]int)
	for i := 0; i < g.Len(); i++ {
		tile := g.Tile(i)
		if tile.State != TileHidden {
			continue
		}
		if j, ok := seen[tile.Symbol]; ok {
			return j, i
		}
		seen[tile.Symbol] = i
	}
	t.Fatal("no hidden pair left")
	return -1, -1
}

// findMismatch returns two hidden tiles with different symbols.
func findMismatch(t *testing.T, g *Game) (int, int) {
	t.Helper()
	first := -1
	for i := 0; i < g.Len(); i++ {
		if g.Tile(i).State != TileHidden {
			continue
		}
		if first < 0 {
			first = i
			continue
		}
		if g.Tile(i).Symbol != g.Tile(first).Symbol {
			return first, i
		}
	}
	t.Fatal("no hidden mismatch left")
	return -1, -1
}

// solve clears the board with one move per pair plus extra wasted moves.
func solve(t *testing.T, g *Game, clock *core.ManualClock, wasted int) {
	t.Helper()
	for i := 0; i < wasted; i++ {
		a, b := findMismatch(t, g)
		g.Select(a)
		g.Select(b)
		step(g, clock, time.Second)
	}
	for g.MatchedPairs() < g.Mode().TotalPairs() {
		a, b := findPair(t, g)
		g.Select(a)
		g.Select(b)
		step(g, clock, 400*time.Millisecond)
	}
	step(g, clock, time.Second)
}

func TestNewBoardPairs(t *testing.T) {
	for _, mode := range config.Modes() {
		t.Run(string(mode), func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			pool := make(map[string]bool)
			for _, s := range config.ZenSymbols {
				pool[s] = true
			}

			for n := 0; n < 50; n++ {
				b := NewBoard(mode, config.ZenSymbols, rng)
				size := mode.GridSize() * mode.GridSize()
				if b.Len() != size {
					t.Fatalf("board has %d tiles, expected %d", b.Len(), size)
				}

				counts := make(map[string]int)
				for _, tile := range b.Tiles {
					if !pool[tile.Symbol] {
						t.Fatalf("symbol %q is not from the pool", tile.Symbol)
					}
					if tile.State != TileHidden {
						t.Fatalf("fresh tile in state %v", tile.State)
					}
					counts[tile.Symbol]++
				}
				if len(counts) != mode.TotalPairs() {
					t.Fatalf("board has %d distinct symbols, expected %d", len(counts), mode.TotalPairs())
				}
				for s, c := range counts {
					if c != 2 {
						t.Fatalf("symbol %q appears %d times, expected 2", s, c)
					}
				}
			}
		})
	}
}

func TestNewBoardArrangementVaries(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	first := NewBoard(config.ModeBeginner, config.ZenSymbols, rng)

	for n := 0; n < 20; n++ {
		next := NewBoard(config.ModeBeginner, config.ZenSymbols, rng)
		for i := range next.Tiles {
			if next.Tiles[i].Symbol != first.Tiles[i].Symbol {
				return
			}
		}
	}
	t.Error("21 consecutive boards had identical arrangements")
}

func TestNewBoardDeterministicForSeed(t *testing.T) {
	a := NewBoard(config.ModeExpert, config.ZenSymbols, rand.New(rand.NewSource(42)))
	b := NewBoard(config.ModeExpert, config.ZenSymbols, rand.New(rand.NewSource(42)))
	for i := range a.Tiles {
		if a.Tiles[i].Symbol != b.Tiles[i].Symbol {
			t.Fatalf("tile %d differs for the same seed: %q vs %q", i, a.Tiles[i].Symbol, b.Tiles[i].Symbol)
		}
	}
}

func TestNewRejectsSmallPool(t *testing.T) {
	_, err := New(Options{Symbols: config.ZenSymbols[:17]})
	if !errors.Is(err, ErrSymbolPool) {
		t.Errorf("New() with 17 symbols = %v, expected ErrSymbolPool", err)
	}

	dup := append([]string(nil), config.ZenSymbols...)
	dup[5] = dup[0]
	if _, err := New(Options{Symbols: dup}); !errors.Is(err, ErrSymbolPool) {
		t.Errorf("New() with duplicate symbols = %v, expected ErrSymbolPool", err)
	}
}

func TestMatchResolvesAfterDelay(t *testing.T) {
	g, clock := newTestGame(t, 1, nil)
	g.NewGame(config.ModeBeginner)

	a, b := findPair(t, g)
	if !g.Select(a) {
		t.Fatal("first selection rejected")
	}
	if g.Moves() != 0 {
		t.Errorf("Moves() = %d after one selection, expected 0", g.Moves())
	}
	if !g.Select(b) {
		t.Fatal("second selection rejected")
	}

	if g.Moves() != 1 {
		t.Errorf("Moves() = %d, expected 1", g.Moves())
	}
	if !g.Locked() {
		t.Error("board should be locked while the pair resolves")
	}

	step(g, clock, 379*time.Millisecond)
	if g.Tile(a).State != TileFlipped || g.MatchedPairs() != 0 {
		t.Fatalf("pair resolved too early: state=%v pairs=%d", g.Tile(a).State, g.MatchedPairs())
	}

	step(g, clock, time.Millisecond)
	if g.Tile(a).State != TileMatched || g.Tile(b).State != TileMatched {
		t.Errorf("tiles = %v/%v, expected matched", g.Tile(a).State, g.Tile(b).State)
	}
	if g.MatchedPairs() != 1 {
		t.Errorf("MatchedPairs() = %d, expected 1", g.MatchedPairs())
	}
	if g.Locked() {
		t.Error("board should unlock after the match")
	}
}

func TestMismatchFlipsBack(t *testing.T) {
	g, clock := newTestGame(t, 2, nil)
	g.NewGame(config.ModeBeginner)

	a, c := findMismatch(t, g)
	g.Select(a)
	g.Select(c)

	step(g, clock, 199*time.Millisecond)
	if g.Tile(a).Wrong {
		t.Error("wrong highlight shown before 200ms")
	}

	step(g, clock, time.Millisecond)
	if !g.Tile(a).Wrong || !g.Tile(c).Wrong {
		t.Error("both tiles should be marked wrong at 200ms")
	}
	if g.Tile(a).State != TileFlipped {
		t.Errorf("tile state = %v during highlight, expected flipped", g.Tile(a).State)
	}

	step(g, clock, 749*time.Millisecond)
	if g.Tile(a).State != TileFlipped || !g.Locked() {
		t.Fatal("mismatch reset before 950ms")
	}

	step(g, clock, time.Millisecond)
	for _, i := range []int{a, c} {
		tile := g.Tile(i)
		if tile.State != TileHidden || tile.Wrong {
			t.Errorf("tile %d = %+v, expected hidden without highlight", i, tile)
		}
	}
	if g.Moves() != 1 {
		t.Errorf("Moves() = %d, expected 1", g.Moves())
	}
	if g.MatchedPairs() != 0 {
		t.Errorf("MatchedPairs() = %d, expected 0", g.MatchedPairs())
	}
	if g.Locked() {
		t.Error("board should unlock after the reset")
	}
}

func TestSelectNoOps(t *testing.T) {
	g, clock := newTestGame(t, 3, nil)
	g.NewGame(config.ModeBeginner)

	a, b := findPair(t, g)
	g.Select(a)

	if g.Select(a) {
		t.Error("selecting the first tile again should be a no-op")
	}
	if g.Select(-1) || g.Select(g.Len()) {
		t.Error("out-of-range selections should be no-ops")
	}

	g.Select(b)
	x, _ := findMismatch(t, g)
	if g.Select(x) {
		t.Error("selection while locked should be a no-op")
	}
	if g.Tile(x).State != TileHidden {
		t.Error("locked selection must not flip the tile")
	}

	step(g, clock, 400*time.Millisecond)
	if g.Select(a) {
		t.Error("selecting a matched tile should be a no-op")
	}
	if g.Moves() != 1 {
		t.Errorf("Moves() = %d, expected 1", g.Moves())
	}
}

func TestMoveCountPerPair(t *testing.T) {
	g, clock := newTestGame(t, 4, nil)
	g.NewGame(config.ModeExpert)

	for n := 1; n <= 5; n++ {
		a, c := findMismatch(t, g)
		g.Select(a)
		if g.Moves() != n-1 {
			t.Fatalf("Moves() = %d after first selection of pair %d", g.Moves(), n)
		}
		g.Select(c)
		if g.Moves() != n {
			t.Fatalf("Moves() = %d after pair %d", g.Moves(), n)
		}
		step(g, clock, time.Second)
	}
}

func TestWinStoresBest(t *testing.T) {
	records := NewMemoryRecords()
	g, clock := newTestGame(t, 5, records)

	g.NewGame(config.ModeBeginner)
	if _, ok := g.Best(); ok {
		t.Fatal("fresh records should have no best")
	}
	solve(t, g, clock, 3)

	s, ok := g.Summary()
	if !ok {
		t.Fatal("win summary should be available after clearing the board")
	}
	if g.Phase() != PhaseWon {
		t.Errorf("Phase() = %v, expected PhaseWon", g.Phase())
	}
	if s.Moves != 11 || !s.NewRecord || s.Best != 11 {
		t.Errorf("summary = %+v, expected 11 moves and a new record", s)
	}
	if best, _, _ := records.BestMoves(config.ModeBeginner); best != 11 {
		t.Errorf("stored best = %d, expected 11", best)
	}

	// A worse game must not raise the stored value.
	g.NewGame(config.ModeBeginner)
	if best, ok := g.Best(); !ok || best != 11 {
		t.Errorf("Best() = %d, %v at new game, expected 11", best, ok)
	}
	solve(t, g, clock, 5)
	s, _ = g.Summary()
	if s.NewRecord || s.Best != 11 {
		t.Errorf("summary = %+v, expected no record and best 11", s)
	}
	if best, _, _ := records.BestMoves(config.ModeBeginner); best != 11 {
		t.Errorf("stored best = %d after a worse game, expected 11", best)
	}

	// An equal score is not a record either.
	g.NewGame(config.ModeBeginner)
	solve(t, g, clock, 3)
	if s, _ = g.Summary(); s.NewRecord {
		t.Error("equal move count should not be a new record")
	}

	// A better game lowers it.
	g.NewGame(config.ModeBeginner)
	solve(t, g, clock, 0)
	s, _ = g.Summary()
	if !s.NewRecord || s.Best != 8 {
		t.Errorf("summary = %+v, expected new record of 8", s)
	}

	// Records are per mode.
	if _, ok, _ := records.BestMoves(config.ModeExpert); ok {
		t.Error("expert should have no record")
	}
}

func TestWinSequenceTiming(t *testing.T) {
	g, clock := newTestGame(t, 6, nil)
	g.NewGame(config.ModeBeginner)

	for g.MatchedPairs() < 7 {
		a, b := findPair(t, g)
		g.Select(a)
		g.Select(b)
		step(g, clock, 400*time.Millisecond)
	}
	a, b := findPair(t, g)
	g.Select(a)
	g.Select(b)

	step(g, clock, 380*time.Millisecond)
	if g.Phase() != PhaseCleared {
		t.Fatalf("Phase() = %v after last match, expected PhaseCleared", g.Phase())
	}
	elapsed := g.Elapsed()

	step(g, clock, 599*time.Millisecond)
	if _, ok := g.Summary(); ok {
		t.Fatal("summary shown before the win delay")
	}
	step(g, clock, time.Millisecond)
	if _, ok := g.Summary(); !ok {
		t.Fatal("summary missing after the win delay")
	}

	step(g, clock, 10*time.Second)
	if g.Elapsed() != elapsed {
		t.Errorf("timer kept running after the win: %d -> %d", elapsed, g.Elapsed())
	}
}

func TestElapsedTicks(t *testing.T) {
	g, clock := newTestGame(t, 7, nil)
	g.NewGame(config.ModeExpert)

	step(g, clock, 3500*time.Millisecond)
	if g.Elapsed() != 3 {
		t.Errorf("Elapsed() = %d, expected 3", g.Elapsed())
	}

	g.Stop()
	step(g, clock, 5*time.Second)
	if g.Elapsed() != 3 {
		t.Errorf("Elapsed() = %d after Stop, expected 3", g.Elapsed())
	}
	if g.Pending() != 0 {
		t.Errorf("Pending() = %d after Stop, expected 0", g.Pending())
	}
}

func TestNewGameDropsPendingMismatch(t *testing.T) {
	g, clock := newTestGame(t, 8, nil)
	g.NewGame(config.ModeBeginner)

	a, c := findMismatch(t, g)
	g.Select(a)
	g.Select(c)
	step(g, clock, 100*time.Millisecond)

	g.NewGame(config.ModeBeginner)
	x, _ := findPair(t, g)
	g.Select(x)

	// The old reset would have cleared the turn and hidden tiles a and c.
	step(g, clock, time.Second)
	if g.Tile(x).State != TileFlipped {
		t.Errorf("new board tile %d = %v, expected flipped", x, g.Tile(x).State)
	}
	for i := 0; i < g.Len(); i++ {
		if g.Tile(i).Wrong {
			t.Errorf("tile %d carries a stale wrong highlight", i)
		}
	}
	if g.Select(x) {
		t.Error("turn state was cleared by a stale callback")
	}
	if g.Moves() != 0 {
		t.Errorf("Moves() = %d, expected 0", g.Moves())
	}
}

type failingRecords struct{ writes int }

func (f *failingRecords) BestMoves(config.Mode) (int, bool, error) {
	return 0, false, errors.New("disk on fire")
}

func (f *failingRecords) SetBestMoves(config.Mode, int) error {
	f.writes++
	return errors.New("disk on fire")
}

func TestRecordErrorsAreSoft(t *testing.T) {
	records := &failingRecords{}
	g, clock := newTestGame(t, 9, records)
	g.NewGame(config.ModeBeginner)

	if _, ok := g.Best(); ok {
		t.Error("read failure should count as no record")
	}
	solve(t, g, clock, 0)

	s, ok := g.Summary()
	if !ok {
		t.Fatal("win should complete despite storage failures")
	}
	if !s.NewRecord || s.SaveErr == nil {
		t.Errorf("summary = %+v, expected a new record with SaveErr set", s)
	}
	if records.writes != 1 {
		t.Errorf("writes = %d, expected 1", records.writes)
	}
}

func TestSnapshotHidesSymbols(t *testing.T) {
	g, _ := newTestGame(t, 10, nil)
	g.NewGame(config.ModeBeginner)

	a, _ := findPair(t, g)
	g.Select(a)

	snap := g.Snapshot()
	if len(snap.Tiles) != 16 || snap.Cols != 4 || snap.TotalPairs != 8 {
		t.Fatalf("snapshot shape = %d tiles, %d cols, %d pairs", len(snap.Tiles), snap.Cols, snap.TotalPairs)
	}
	for i, tv := range snap.Tiles {
		if i == a {
			if tv.Symbol != g.Tile(a).Symbol || tv.State != "flipped" {
				t.Errorf("flipped tile view = %+v", tv)
			}
			continue
		}
		if tv.Symbol != "" || tv.State != "hidden" {
			t.Errorf("hidden tile %d leaks %+v", i, tv)
		}
	}
	if snap.Best != nil {
		t.Error("snapshot best should be nil without a record")
	}
}

func TestRender(t *testing.T) {
	g, clock := newTestGame(t, 11, nil)
	g.NewGame(config.ModeExpert)

	screen := core.NewScreen(80, 24)
	g.Render(screen, 0)
	out := screen.String()
	if !strings.Contains(out, "Moves 0") || !strings.Contains(out, "Best —") {
		t.Errorf("HUD missing from render:\n%s", out)
	}
	if screen.GetCell((80-41)/2, hudHeight).Color != core.ColorBrightCyan {
		t.Error("cursor tile should be highlighted")
	}

	solve(t, g, clock, 0)
	g.Render(screen, -1)
	if out := screen.String(); !strings.Contains(out, "Board cleared!") || !strings.Contains(out, "New record!") {
		t.Errorf("win overlay missing:\n%s", out)
	}

	small := core.NewScreen(30, 10)
	g.Render(small, 0)
	if !strings.Contains(small.String(), "Window too small") {
		t.Error("expected too-small notice")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{61, "1:01"},
		{600, "10:00"},
	}
	for _, tc := range tests {
		if got := FormatElapsed(tc.secs); got != tc.want {
			t.Errorf("FormatElapsed(%d) = %q, expected %q", tc.secs, got, tc.want)
		}
	}
}
