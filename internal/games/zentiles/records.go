package zentiles

import (
	"sync"

	"github.com/vovakirdan/zentiles/internal/config"
)

// Records persists the best (lowest) move count per mode.
type Records interface {
	// BestMoves returns the stored best for mode; ok is false when no
	// record exists yet.
	BestMoves(mode config.Mode) (moves int, ok bool, err error)
	// SetBestMoves stores moves as the best for mode.
	SetBestMoves(mode config.Mode, moves int) error
}

// MemoryRecords is an in-process Records, used when no database is open.
type MemoryRecords struct {
	mu   sync.Mutex
	best map[config.Mode]int
}

// NewMemoryRecords creates an empty MemoryRecords.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{best: make(map[config.Mode]int)}
}

// BestMoves implements Records.
func (r *MemoryRecords) BestMoves(mode config.Mode) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.best[mode]
	return m, ok, nil
}

// SetBestMoves implements Records.
func (r *MemoryRecords) SetBestMoves(mode config.Mode, moves int) error {
	r.mu.Lock()
	r.best[mode] = moves
	r.mu.Unlock()
	return nil
}

var _ Records = (*MemoryRecords)(nil)
