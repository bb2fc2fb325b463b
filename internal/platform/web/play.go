package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/games/zentiles"
)

// Client messages on /ws/play.
const (
	msgNew    = "new"    // {"type":"new","mode":"expert"}
	msgSelect = "select" // {"type":"select","index":3}
)

type clientMsg struct {
	Type  string `json:"type"`
	Mode  string `json:"mode,omitempty"`
	Index int    `json:"index"`
}

// serverMsg is pushed after every visible change.
type serverMsg struct {
	Type  string             `json:"type"` // "state" or "error"
	State *zentiles.Snapshot `json:"state,omitempty"`
	Error string             `json:"error,omitempty"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	game, err := zentiles.New(zentiles.Options{
		Symbols: s.opts.Game.Symbols,
		Timing:  zentiles.TimingFromConfig(s.opts.Game),
		Records: s.opts.Records,
	})
	if err != nil {
		s.logger.Error("cannot create game", "error", err)
		return
	}

	remote := r.RemoteAddr
	s.logger.Info("play session started", "remote", remote)
	defer s.logger.Info("play session ended", "remote", remote)

	p := &playSession{server: s, conn: conn, game: game}
	p.run()
}

// playSession owns one game. Only run's goroutine touches the game and
// writes to the connection.
type playSession struct {
	server   *Server
	conn     *websocket.Conn
	game     *zentiles.Game
	last     []byte
	recorded bool
}

func (p *playSession) run() {
	incoming := make(chan clientMsg)
	done := make(chan struct{})
	defer close(done)
	go p.read(incoming, done)

	ticker := time.NewTicker(p.server.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-incoming:
			if !ok {
				p.game.Stop()
				return
			}
			if err := p.handle(msg); err != nil {
				if p.send(serverMsg{Type: "error", Error: err.Error()}) != nil {
					return
				}
				continue
			}
		case <-ticker.C:
			p.game.Advance()
			p.recordWin()
		}

		if err := p.pushState(); err != nil {
			return
		}
	}
}

func (p *playSession) read(out chan<- clientMsg, done <-chan struct{}) {
	defer close(out)
	for {
		var msg clientMsg
		if err := p.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.server.logger.Debug("websocket read", "error", err)
			}
			return
		}
		select {
		case out <- msg:
		case <-done:
			return
		}
	}
}

func (p *playSession) handle(msg clientMsg) error {
	switch msg.Type {
	case msgNew:
		mode, err := config.ParseMode(msg.Mode)
		if err != nil {
			return err
		}
		p.game.NewGame(mode)
		p.recorded = false
		p.last = nil
	case msgSelect:
		p.game.Select(msg.Index)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// pushState sends the snapshot if it differs from the last one sent.
func (p *playSession) pushState() error {
	if p.game.Mode() == "" {
		return nil
	}
	snap := p.game.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if bytes.Equal(data, p.last) {
		return nil
	}
	p.last = data
	return p.send(serverMsg{Type: "state", State: &snap})
}

func (p *playSession) send(msg serverMsg) error {
	_ = p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return p.conn.WriteJSON(msg)
}

func (p *playSession) recordWin() {
	s, ok := p.game.Summary()
	if !ok || p.recorded {
		return
	}
	p.recorded = true

	logger := p.server.logger
	if s.SaveErr != nil {
		logger.Warn("could not save best score", "mode", s.Mode, "error", s.SaveErr)
	}
	if store := p.server.opts.Store; store != nil {
		if _, err := store.SaveSession(s); err != nil {
			logger.Warn("could not save session", "error", err)
		}
	}
}
