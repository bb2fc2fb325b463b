package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/core"
	"github.com/vovakirdan/zentiles/internal/games/zentiles"
	"github.com/vovakirdan/zentiles/internal/storage"
)

// Options configures the front end.
type Options struct {
	Game    config.GameConfig
	Runtime core.RuntimeConfig
	Store   *storage.Store   // Session history; nil disables it
	Records zentiles.Records // Bests; defaults to Store, or memory without one
	Logger  *log.Logger
}

// withRecords fills Records so every board of a session shares one source.
func (o Options) withRecords() Options {
	if o.Records != nil {
		return o
	}
	if o.Store != nil {
		o.Records = o.Store
	} else {
		o.Records = zentiles.NewMemoryRecords()
	}
	return o
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// GameModel is the Bubble Tea model for one ZenTiles board.
type GameModel struct {
	game         *zentiles.Game
	screen       *core.Screen
	store        *storage.Store
	config       core.RuntimeConfig
	keys         KeyMap
	help         help.Model
	logger       *log.Logger
	cursor       int
	tickLoop     uint64
	standalone   bool // Back quits the program instead of returning to a menu
	quitting     bool
	backToMenu   bool
	sessionSaved bool
}

// NewGameModel deals a board for mode.
func NewGameModel(mode config.Mode, opts Options) (GameModel, error) {
	cfg := opts.Runtime
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	opts = opts.withRecords()

	game, err := zentiles.New(zentiles.Options{
		Symbols: opts.Game.Symbols,
		Timing:  zentiles.TimingFromConfig(opts.Game),
		Records: opts.Records,
		Seed:    cfg.Seed,
	})
	if err != nil {
		return GameModel{}, err
	}
	game.NewGame(mode)

	return GameModel{
		game:     game,
		screen:   core.NewScreen(cfg.ScreenW, boardHeight(cfg.ScreenH)),
		store:    opts.Store,
		config:   cfg,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		logger:   opts.logger(),
		tickLoop: newTickLoop(),
	}, nil
}

// boardHeight leaves the last row for the help line.
func boardHeight(h int) int {
	return max(h-1, 1)
}

// Init starts the tick loop.
func (m GameModel) Init() tea.Cmd {
	return tickCmd(m.config.TickRate, m.tickLoop)
}

// Update handles messages.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, boardHeight(msg.Height))
		m.help.Width = msg.Width
		return m, nil
	case TickMsg:
		if msg.loop != m.tickLoop {
			return m, nil
		}
		return m.handleTick()
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols, size := m.game.Cols(), m.game.Len()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.game.Stop()
		m.backToMenu = true
		if m.standalone {
			return m, tea.Quit
		}

	case key.Matches(msg, m.keys.Screenshot):
		m.saveScreenshot()

	case key.Matches(msg, m.keys.Up):
		m.cursor = moveCursor(m.cursor, cols, size, 0, -1)
	case key.Matches(msg, m.keys.Down):
		m.cursor = moveCursor(m.cursor, cols, size, 0, 1)
	case key.Matches(msg, m.keys.Left):
		m.cursor = moveCursor(m.cursor, cols, size, -1, 0)
	case key.Matches(msg, m.keys.Right):
		m.cursor = moveCursor(m.cursor, cols, size, 1, 0)

	case key.Matches(msg, m.keys.Select):
		m.game.Select(m.cursor)

	case key.Matches(msg, m.keys.Restart):
		if m.game.Phase() == zentiles.PhaseWon {
			m.game.Restart()
			m.cursor = 0
			m.sessionSaved = false
		}
	}

	return m, nil
}

// handleTick runs due transitions and records a finished board once.
func (m GameModel) handleTick() (tea.Model, tea.Cmd) {
	if m.quitting || m.backToMenu {
		return m, nil
	}
	m.game.Advance()

	if s, ok := m.game.Summary(); ok && !m.sessionSaved {
		m.recordWin(s)
		m.sessionSaved = true
	}

	return m, tickCmd(m.config.TickRate, m.tickLoop)
}

func (m GameModel) recordWin(s zentiles.WinSummary) {
	m.logger.Debug("board cleared", "mode", s.Mode, "moves", s.Moves, "seconds", s.Elapsed, "record", s.NewRecord)
	if s.SaveErr != nil {
		m.logger.Warn("could not save best score", "mode", s.Mode, "error", s.SaveErr)
	}
	if m.store == nil {
		return
	}
	if _, err := m.store.SaveSession(s); err != nil {
		m.logger.Warn("could not save session", "error", err)
	}
}

// saveScreenshot saves the current board to a text file.
func (m *GameModel) saveScreenshot() {
	m.game.Render(m.screen, m.cursor)

	dir := filepath.Join(os.Getenv("HOME"), ".zentiles", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", m.game.Mode(), timestamp))

	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// View renders the board.
func (m GameModel) View() string {
	if m.quitting {
		return ""
	}

	m.game.Render(m.screen, m.cursor)
	return RenderScreen(m.screen) + "\n" + helpStyle.Render(m.help.View(m.keys))
}

// Game returns the underlying controller.
func (m GameModel) Game() *zentiles.Game {
	return m.game
}

// IsQuitting returns true if user requested to quit entirely.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m GameModel) BackToMenu() bool {
	return m.backToMenu
}

// Run plays a single mode until the user quits or backs out.
func Run(mode config.Mode, opts Options) error {
	model, err := NewGameModel(mode, opts)
	if err != nil {
		return err
	}
	model.standalone = true

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
