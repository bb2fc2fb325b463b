package offline

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotCached is returned by Match when no entry exists for a key.
	ErrNotCached = errors.New("offline: not cached")

	// ErrInstallFailed wraps every error that aborts Install.
	ErrInstallFailed = errors.New("offline: install failed")

	// ErrNotInstalled is returned by Activate before a successful Install.
	ErrNotInstalled = errors.New("offline: worker not installed")

	// ErrNoGeneration is returned when no stored cache generation can be resumed.
	ErrNoGeneration = errors.New("offline: no stored generation")
)

// Cache is one named cache generation.
// Puts to the same key are last-write-wins.
type Cache interface {
	Name() string
	Match(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, e *Entry) error
	Keys(ctx context.Context) ([]string, error)
}

// Storage holds every cache generation of an origin.
type Storage interface {
	// Open returns the named cache, creating it if absent.
	Open(ctx context.Context, name string) (Cache, error)
	// Keys lists cache names.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes the named cache and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// Match looks key up across all caches.
	Match(ctx context.Context, key string) (*Entry, error)
}

// StoredGeneration picks the generation a restarted server can resume:
// name itself when stored, otherwise the last listed generation starting
// with prefix.
func StoredGeneration(ctx context.Context, s Storage, name, prefix string) (string, error) {
	names, err := s.Keys(ctx)
	if err != nil {
		return "", err
	}
	found := ""
	for _, n := range names {
		if n == name {
			return n, nil
		}
		if prefix != "" && strings.HasPrefix(n, prefix) {
			found = n
		}
	}
	if found == "" {
		return "", ErrNoGeneration
	}
	return found, nil
}
