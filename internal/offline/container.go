package offline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Container routes requests through the active worker.
// Until a worker is registered, requests go straight to the origin.
type Container struct {
	origin *url.URL
	client Fetcher
	logger *log.Logger

	mu     sync.RWMutex
	active *Worker
}

// NewContainer creates a container for origin with no active worker.
func NewContainer(origin string, client Fetcher, logger *log.Logger) (*Container, error) {
	u, err := url.Parse(origin)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("offline: invalid origin %q", origin)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Container{origin: u, client: client, logger: logger.WithPrefix("offline")}, nil
}

// Register installs w and, on success, activates it in place of the current
// worker. If install fails the current worker keeps serving.
// w takes over requests before old generations are deleted.
func (c *Container) Register(ctx context.Context, w *Worker) error {
	if err := w.Install(ctx); err != nil {
		if prev := c.Active(); prev != nil {
			c.logger.Warn("keeping previous worker", "cache", prev.Name())
		}
		return err
	}

	prev := c.swap(w)
	if err := w.Activate(ctx); err != nil {
		c.swap(prev)
		return err
	}
	c.retire(prev, w)
	return nil
}

// Resume activates w over the generation an earlier run stored, replacing
// the current worker. Nothing is fetched; on error the current worker stays.
func (c *Container) Resume(ctx context.Context, w *Worker) error {
	if err := w.Resume(ctx); err != nil {
		return err
	}
	c.retire(c.swap(w), w)
	return nil
}

func (c *Container) swap(w *Worker) *Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.active
	c.active = w
	return prev
}

func (c *Container) retire(prev, next *Worker) {
	if prev != nil && prev != next {
		prev.setState(StateRedundant)
		c.logger.Info("worker replaced", "old", prev.Name(), "new", next.Name())
	}
}

// Active returns the serving worker, or nil.
func (c *Container) Active() *Worker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Fetch answers req through the active worker or the network.
func (c *Container) Fetch(req *http.Request) (*http.Response, error) {
	if w := c.Active(); w != nil {
		return w.Fetch(req)
	}
	return forward(c.client, req, resolve(c.origin, req.URL))
}

// ServeHTTP implements http.Handler.
func (c *Container) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if w := c.Active(); w != nil {
		w.ServeHTTP(rw, req)
		return
	}
	resp, err := c.Fetch(req)
	if err != nil {
		c.logger.Warn("pass-through failed", "url", req.URL.String(), "error", err)
		http.Error(rw, "Bad Gateway", http.StatusBadGateway)
		return
	}
	if err := writeResponse(rw, resp); err != nil {
		c.logger.Debug("write response", "error", err)
	}
}
