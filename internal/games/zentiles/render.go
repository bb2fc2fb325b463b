package zentiles

import (
	"fmt"

	"github.com/vovakirdan/zentiles/internal/core"
)

const (
	tileWidth  = 6 // Box width including borders
	tileHeight = 3 // Box height including borders
	tileGap    = 1 // Columns between tiles
	hudHeight  = 3 // Title, stats, spacer
)

// BoardSize returns the screen area the board needs for cols x cols tiles,
// HUD included.
func BoardSize(cols int) (w, h int) {
	w = cols*(tileWidth+tileGap) - tileGap
	h = hudHeight + cols*tileHeight
	return w, h
}

// Render draws the board, HUD and win overlay. cursor is the highlighted
// tile index, or -1 for none.
func (g *Game) Render(dst *core.Screen, cursor int) {
	dst.Clear()
	if g.board.Len() == 0 {
		return
	}

	cols := g.board.Cols()
	boardW, boardH := BoardSize(cols)
	if dst.Width() < boardW || dst.Height() < boardH {
		renderTooSmall(dst)
		return
	}

	originX := (dst.Width() - boardW) / 2
	g.renderHUD(dst, originX, boardW)

	for i, tile := range g.board.Tiles {
		x := originX + (i%cols)*(tileWidth+tileGap)
		y := hudHeight + (i/cols)*tileHeight
		renderTile(dst, x, y, tile, i == cursor)
	}

	if s, ok := g.Summary(); ok {
		renderWin(dst, originX, boardW, boardH, s)
	}
}

func renderTooSmall(dst *core.Screen) {
	y := dst.Height() / 2
	dst.DrawTextCentered(y, "Window too small", core.ColorYellow)
	dst.DrawTextCentered(y+1, "Please resize terminal", core.ColorGray)
}

func (g *Game) renderHUD(dst *core.Screen, x, w int) {
	title := "ZenTiles  " + g.mode.Title()
	dst.DrawTextColor(x+(w-len([]rune(title)))/2, 0, title, core.ColorCyan)

	best := "—"
	if b, ok := g.Best(); ok {
		best = fmt.Sprint(b)
	}
	stats := fmt.Sprintf("Moves %d   Time %s   Best %s", g.moves, FormatElapsed(g.elapsed), best)
	dst.DrawTextColor(x+(w-len([]rune(stats)))/2, 1, stats, core.ColorWhite)
}

func renderTile(dst *core.Screen, x, y int, t Tile, selected bool) {
	border := core.ColorGray
	face := core.ColorWhite
	switch {
	case t.State == TileMatched:
		border, face = core.ColorGreen, core.ColorBrightGreen
	case t.Wrong:
		border, face = core.ColorRed, core.ColorRed
	case t.State == TileFlipped:
		border = core.ColorWhite
	}
	if selected {
		border = core.ColorBrightCyan
	}

	dst.DrawBox(core.NewRect(x, y, tileWidth, tileHeight), border)
	if t.State == TileHidden {
		dst.DrawTextColor(x+2, y+1, "··", core.ColorGray)
		return
	}
	dst.SetWide(x+2, y+1, t.Symbol, face)
}

func renderWin(dst *core.Screen, x, boardW, boardH int, s WinSummary) {
	best := fmt.Sprintf("Best   %d", s.Best)
	if s.NewRecord {
		best += "  New record!"
	}
	lines := []string{
		"Board cleared!",
		"",
		fmt.Sprintf("Moves  %d", s.Moves),
		fmt.Sprintf("Time   %s", FormatElapsed(s.Elapsed)),
		best,
		"",
		"R play again   B menu",
	}

	w := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > w {
			w = n
		}
	}
	w += 4
	h := len(lines) + 2
	box := core.NewRect(x+(boardW-w)/2, hudHeight+(boardH-hudHeight-h)/2, w, h)

	dst.FillRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box, core.ColorBrightGreen)
	for i, l := range lines {
		c := core.ColorWhite
		if i == 0 || (s.NewRecord && i == 4) {
			c = core.ColorBrightGreen
		}
		dst.DrawTextColor(box.X+2, box.Y+1+i, l, c)
	}
}
