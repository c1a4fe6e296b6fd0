// internal/store/store.go
//
// Persistence gateway for finished attempt sequences.
// Append-only: every finished sequence is a fresh insert, so retrying a
// failed write never needs an idempotency key.
//
// Implementations:
//   - memory (this package): process-local, for tests and throwaway play.
//   - sqlite (this package): durable history in a SQLite file.

package store

import (
	"context"

	"github.com/robalobadob/guessnumber/internal/game"
)

// Store defines the persistence interface for attempt history.
type Store interface {
	// Append inserts rec and returns its id. A zero Timestamp is set to now (UTC).
	Append(ctx context.Context, rec game.Record) (int64, error)

	// ReadAll returns every record ordered by id, omitting those owned by
	// excludeOwnerID when it is non-empty.
	ReadAll(ctx context.Context, excludeOwnerID string) ([]game.Record, error)

	Close() error
}
