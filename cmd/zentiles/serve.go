package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/core"
	"github.com/vovakirdan/zentiles/internal/offline"
	"github.com/vovakirdan/zentiles/internal/platform/tui"
	"github.com/vovakirdan/zentiles/internal/platform/web"
	"github.com/vovakirdan/zentiles/internal/storage"
)

var (
	flagHTTPAddr string
	flagSSHAddr  string
	flagHostKey  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ZenTiles servers",
	Long: `Start the HTTP server and, with --ssh, an SSH server for terminal play.

The HTTP server answers:
  /api/healthz      - liveness and the active cache generation
  /api/best/{mode}  - fewest-moves record for a mode
  /ws/play          - websocket play session
  everything else   - the web assets, through the offline cache

On start the cache generation stored by the previous run is served again,
then the asset manifest is precached into the configured generation. If
that fails the stored generation keeps serving; with none stored, requests
are proxied to the origin.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.zentiles/host_key

Examples:
  zentiles serve                          # HTTP on :8080
  zentiles serve --http :9000 --ssh :23234
  zentiles serve --config ./zentiles.yaml

Users can connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP server address (overrides config)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address; empty disables SSH (overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	if flagHTTPAddr != "" {
		cfg.Server.HTTPAddr = flagHTTPAddr
	}
	if flagSSHAddr != "" {
		cfg.Server.SSHAddr = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.Server.HostKeyPath = flagHostKey
	}

	logger := newLogger(os.Stderr, cfg)
	if err := serve(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(cfg config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	container, err := offline.NewContainer(cfg.Offline.Origin, nil, logger)
	if err != nil {
		return err
	}
	if _, err := installWorker(ctx, cfg, store, container, logger); err != nil {
		logger.Warn("offline cache unavailable", "cache", cfg.Offline.CacheName(), "error", err)
	}

	httpServer := web.NewServer(web.Options{
		Addr:      cfg.Server.HTTPAddr,
		Game:      cfg.Game,
		Store:     store,
		Container: container,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.ListenAndServe(gctx)
	})

	if cfg.Server.SSHAddr != "" {
		runtime := core.DefaultConfig()
		runtime.TickRate = flagFPS
		runtime.Seed = flagSeed

		sshServer, err := tui.NewSSHServer(tui.SSHConfigFromServer(cfg.Server), tui.Options{
			Game:    cfg.Game,
			Runtime: runtime,
			Store:   store,
			Logger:  logger,
		})
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return sshServer.ListenAndServe(gctx)
		})
		logger.Info("connect with ssh", "address", cfg.Server.SSHAddr)
	}

	return g.Wait()
}

// cacheBackend picks the cache storage named by the config.
func cacheBackend(cfg config.Config, store *storage.Store) offline.Storage {
	if cfg.Offline.Backend == "memory" || store == nil {
		return offline.NewMemoryStorage()
	}
	return store.CacheStorage()
}

// installWorker resumes the generation an earlier run stored, then
// registers a fresh worker for the configured generation. When that install
// fails the resumed worker keeps serving.
func installWorker(ctx context.Context, cfg config.Config, store *storage.Store, container *offline.Container, logger *log.Logger) (*offline.Worker, error) {
	backend := cacheBackend(cfg, store)
	opts := offline.OptionsFromConfig(cfg.Offline, logger)

	if name, err := offline.StoredGeneration(ctx, backend, opts.Name, cfg.Offline.CachePrefix+"-v"); err == nil {
		resumeOpts := opts
		resumeOpts.Name = name
		if resumed, err := offline.NewWorker(backend, resumeOpts); err == nil {
			if err := container.Resume(ctx, resumed); err != nil {
				logger.Warn("cannot resume stored cache", "cache", name, "error", err)
			}
		}
	}

	worker, err := offline.NewWorker(backend, opts)
	if err != nil {
		return nil, err
	}
	if err := container.Register(ctx, worker); err != nil {
		return nil, err
	}
	return worker, nil
}
