// internal/store/memory.go
//
// In-memory implementation of Store.
// Used by tests, and by the CLI when no database path is configured.
//
// Characteristics:
//   - Records kept in insertion order; ids are 1-based positions.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/guessnumber/internal/game"
)

// memory is an in-memory slice-based Store implementation.
type memory struct {
	mu   sync.RWMutex  // guards recs
	recs []game.Record // index i holds id i+1
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{}
}

// Append stores a copy of rec.
func (m *memory) Append(ctx context.Context, rec game.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.Attempts = append([]int(nil), rec.Attempts...)
	rec.ID = int64(len(m.recs) + 1)
	m.recs = append(m.recs, rec)
	return rec.ID, nil
}

// ReadAll returns copies of the stored records.
func (m *memory) ReadAll(ctx context.Context, excludeOwnerID string) ([]game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]game.Record, 0, len(m.recs))
	for _, r := range m.recs {
		if excludeOwnerID != "" && r.OwnerID == excludeOwnerID {
			continue
		}
		r.Attempts = append([]int(nil), r.Attempts...)
		out = append(out, r)
	}
	return out, nil
}

func (m *memory) Close() error { return nil }
