package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/zentiles/internal/config"
)

// State is the lifecycle state of a Worker.
type State int

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
	StateRedundant // Install failed or replaced by a newer worker
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// Fetcher performs network requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Worker.
type Options struct {
	Name   string   // Cache generation, e.g. "zentiles-v1.0.0"
	Origin string   // Base URL the assets are served from
	Assets []string // Manifest, relative to Origin
	Root   string   // Navigation fallback document, relative to Origin
	Client Fetcher  // Defaults to http.DefaultClient
	Logger *log.Logger

	// Concurrency bounds parallel fetches during Install. Zero means 4.
	Concurrency int
}

// OptionsFromConfig maps the offline config section onto worker options.
func OptionsFromConfig(cfg config.OfflineConfig, logger *log.Logger) Options {
	return Options{
		Name:   cfg.CacheName(),
		Origin: cfg.Origin,
		Assets: cfg.Assets,
		Root:   cfg.RootDocument,
		Client: &http.Client{Timeout: cfg.FetchTimeout},
		Logger: logger,
	}
}

// Worker serves one cache generation of an origin.
// Fetch and ServeHTTP are safe for concurrent use.
type Worker struct {
	name        string
	origin      *url.URL
	assets      []string
	root        string
	client      Fetcher
	logger      *log.Logger
	concurrency int
	storage     Storage

	mu    sync.RWMutex
	state State
	cache Cache
}

// NewWorker creates a worker over storage. It does nothing until Install.
func NewWorker(storage Storage, opts Options) (*Worker, error) {
	if opts.Name == "" {
		return nil, errors.New("offline: empty cache name")
	}
	origin, err := url.Parse(opts.Origin)
	if err != nil {
		return nil, fmt.Errorf("offline: parse origin: %w", err)
	}
	if !origin.IsAbs() || origin.Host == "" {
		return nil, fmt.Errorf("offline: origin %q is not an absolute URL", opts.Origin)
	}
	if !strings.HasSuffix(origin.Path, "/") {
		origin.Path += "/"
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Worker{
		name:        opts.Name,
		origin:      origin,
		assets:      append([]string(nil), opts.Assets...),
		root:        opts.Root,
		client:      client,
		logger:      logger.WithPrefix("offline"),
		concurrency: concurrency,
		storage:     storage,
	}, nil
}

// Name returns the cache generation name.
func (w *Worker) Name() string {
	return w.name
}

// Origin returns the asset origin.
func (w *Worker) Origin() *url.URL {
	u := *w.origin
	return &u
}

// State returns the lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Install fetches every manifest asset and stores them in the worker's
// cache generation. It is all-or-nothing: if any asset cannot be fetched or
// does not answer 200, nothing is written and the worker becomes redundant.
// A generation this install created is deleted again if storing fails.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)
	w.logger.Info("installing", "cache", w.name, "assets", len(w.assets))

	entries := make([]*Entry, len(w.assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, asset := range w.assets {
		g.Go(func() error {
			e, err := w.fetchAsset(gctx, asset)
			if err != nil {
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.setState(StateRedundant)
		w.logger.Error("install failed", "cache", w.name, "error", err)
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	// An unreadable listing counts as stored so a failed put never deletes
	// a generation that may be serving.
	existed, err := w.stored(ctx)
	if err != nil {
		existed = true
	}

	c, err := w.storage.Open(ctx, w.name)
	if err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("%w: open cache %s: %w", ErrInstallFailed, w.name, err)
	}
	for _, e := range entries {
		if err := c.Put(ctx, e.URL, e); err != nil {
			w.setState(StateRedundant)
			if !existed {
				if _, derr := w.storage.Delete(ctx, w.name); derr != nil {
					w.logger.Warn("cannot delete partial cache", "cache", w.name, "error", derr)
				}
			}
			return fmt.Errorf("%w: store %s: %w", ErrInstallFailed, e.URL, err)
		}
	}

	w.mu.Lock()
	w.cache = c
	w.state = StateInstalled
	w.mu.Unlock()
	w.logger.Info("all assets cached", "cache", w.name)
	return nil
}

// Resume makes the worker active over its generation as left in storage by
// an earlier run, without fetching anything. It fails with ErrNoGeneration
// if the generation is not stored.
func (w *Worker) Resume(ctx context.Context) error {
	ok, err := w.stored(ctx)
	if err != nil {
		return fmt.Errorf("offline: list caches: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoGeneration, w.name)
	}
	c, err := w.storage.Open(ctx, w.name)
	if err != nil {
		return fmt.Errorf("offline: open cache %s: %w", w.name, err)
	}

	w.mu.Lock()
	w.cache = c
	w.state = StateActive
	w.mu.Unlock()
	w.logger.Info("resumed", "cache", w.name)
	return nil
}

// stored reports whether the worker's generation exists in storage.
func (w *Worker) stored(ctx context.Context) (bool, error) {
	names, err := w.storage.Keys(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, w.name), nil
}

func (w *Worker) fetchAsset(ctx context.Context, asset string) (*Entry, error) {
	target := w.assetURL(asset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", asset, err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", asset, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", asset, resp.StatusCode)
	}
	return ReadEntry(target, resp)
}

// Activate deletes every cache generation other than the worker's own and
// starts serving. Deletion failures are logged and skipped.
func (w *Worker) Activate(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateInstalled {
		state := w.state
		w.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrNotInstalled, state)
	}
	w.state = StateActivating
	w.mu.Unlock()

	names, err := w.storage.Keys(ctx)
	if err != nil {
		w.logger.Warn("cannot list caches", "error", err)
	}
	for _, name := range names {
		if name == w.name {
			continue
		}
		w.logger.Info("deleting old cache", "cache", name)
		if _, err := w.storage.Delete(ctx, name); err != nil {
			w.logger.Warn("cannot delete old cache", "cache", name, "error", err)
		}
	}

	w.setState(StateActive)
	w.logger.Info("active", "cache", w.name)
	return nil
}

// Fetch answers req. GET requests are served cache-first and never fail:
// network errors degrade to the root document or a 503. Other methods go
// to the origin untouched, and their network errors are returned.
func (w *Worker) Fetch(req *http.Request) (*http.Response, error) {
	target := resolve(w.origin, req.URL)

	w.mu.RLock()
	c := w.cache
	w.mu.RUnlock()

	if req.Method != http.MethodGet || c == nil {
		return forward(w.client, req, target)
	}

	ctx := req.Context()
	key := target.String()

	if e, err := c.Match(ctx, key); err == nil {
		w.logger.Debug("serving from cache", "url", key)
		return e.Response(req), nil
	} else if !errors.Is(err, ErrNotCached) {
		w.logger.Warn("cache lookup failed", "url", key, "error", err)
	}

	w.logger.Debug("fetching from network", "url", key)
	resp, err := forward(w.client, req, target)
	if err != nil {
		w.logger.Debug("network unavailable", "url", key, "error", err)
		return w.fallback(ctx, c, req), nil
	}
	if !w.cacheable(resp) {
		return resp, nil
	}

	e, err := ReadEntry(key, resp)
	if err != nil {
		w.logger.Warn("network read failed", "url", key, "error", err)
		return w.fallback(ctx, c, req), nil
	}
	if err := c.Put(ctx, key, e.Clone()); err != nil {
		w.logger.Warn("cannot cache resource", "url", key, "error", err)
	} else {
		w.logger.Debug("cached new resource", "url", key)
	}
	return e.Response(req), nil
}

// cacheable reports whether resp may be stored: status 200 and still on the
// worker's origin after redirects.
func (w *Worker) cacheable(resp *http.Response) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	if resp.Request == nil || resp.Request.URL == nil {
		return true
	}
	return sameOrigin(w.origin, resp.Request.URL)
}

func (w *Worker) fallback(ctx context.Context, c Cache, req *http.Request) *http.Response {
	if IsNavigation(req) && w.root != "" {
		if e, err := c.Match(ctx, w.assetURL(w.root)); err == nil {
			return e.Response(req)
		}
		w.logger.Warn("root document not cached", "root", w.root)
	}
	return unavailable(req)
}

// ServeHTTP serves Fetch results. Pass-through network errors become 502.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	resp, err := w.Fetch(req)
	if err != nil {
		w.logger.Warn("pass-through failed", "method", req.Method, "url", req.URL.String(), "error", err)
		http.Error(rw, "Bad Gateway", http.StatusBadGateway)
		return
	}
	if err := writeResponse(rw, resp); err != nil {
		w.logger.Debug("write response", "error", err)
	}
}

// Entries lists the keys stored in the worker's generation.
func (w *Worker) Entries(ctx context.Context) ([]string, error) {
	w.mu.RLock()
	c := w.cache
	w.mu.RUnlock()
	if c == nil {
		return nil, ErrNotInstalled
	}
	return c.Keys(ctx)
}

func (w *Worker) assetURL(asset string) string {
	return resolve(w.origin, &url.URL{Path: asset}).String()
}
