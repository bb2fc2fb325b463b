// Package web serves ZenTiles over HTTP: a small JSON API, a websocket play
// endpoint, and the offline asset front for everything else.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/games/zentiles"
	"github.com/vovakirdan/zentiles/internal/offline"
	"github.com/vovakirdan/zentiles/internal/storage"
)

// Options configures a Server.
type Options struct {
	Addr      string
	Game      config.GameConfig
	Store     *storage.Store     // Session history; nil disables it
	Records   zentiles.Records   // Defaults to Store, or memory without one
	Container *offline.Container // Nil answers unknown paths with 404
	Logger    *log.Logger

	// TickInterval paces websocket games. Zero means 50ms.
	TickInterval time.Duration
}

// Server is the HTTP front end.
type Server struct {
	opts     Options
	router   *mux.Router
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	if opts.Records == nil {
		if opts.Store != nil {
			opts.Records = opts.Store
		} else {
			opts.Records = zentiles.NewMemoryRecords()
		}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 50 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		opts:   opts,
		logger: logger.WithPrefix("http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/best/{mode}", s.handleBest).Methods(http.MethodGet)
	r.HandleFunc("/ws/play", s.handlePlay).Methods(http.MethodGet)
	if opts.Container != nil {
		r.PathPrefix("/").Handler(opts.Container)
	}
	r.Use(s.logRequests)
	s.router = r

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache,omitempty"`
	State  string `json:"state,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.opts.Container != nil {
		if active := s.opts.Container.Active(); active != nil {
			resp.Cache = active.Name()
			resp.State = active.State().String()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type bestResponse struct {
	Mode string `json:"mode"`
	Best *int   `json:"best"`
}

func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	mode, err := config.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	resp := bestResponse{Mode: string(mode)}
	// Read failures count as no record.
	if best, ok, err := s.opts.Records.BestMoves(mode); err == nil && ok {
		resp.Best = &best
	} else if err != nil {
		s.logger.Warn("cannot read best", "mode", mode, "error", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
