// Package storage provides the key/value persistence layer behind the store.
// Every backend keeps one opaque value per key together with a revision
// counter used for optimistic concurrency.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/boutique/internal/shared"
)

// AnyRevision disables the revision check on Put.
const AnyRevision int64 = -1

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = fmt.Errorf("storage: key %w", shared.ErrNotFound)
	// ErrRevisionConflict is returned when Put observes another writer.
	ErrRevisionConflict = fmt.Errorf("storage: revision %w", shared.ErrConflict)
	// ErrQuotaExceeded is returned when a backend refuses a value for size.
	ErrQuotaExceeded = fmt.Errorf("storage: quota exceeded: %w", shared.ErrStorage)
)

// Record is a stored value with its revision.
type Record struct {
	Value     []byte
	Revision  int64
	UpdatedAt time.Time
}

// KV is implemented by every storage backend.
//
// Put writes value when the stored revision matches expected and returns the
// new revision. expected == 0 requires the key to be absent; AnyRevision
// overwrites unconditionally.
type KV interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

func checkRevision(key string, current int64, exists bool, expected int64) error {
	if expected == AnyRevision {
		return nil
	}
	if !exists {
		if expected == 0 {
			return nil
		}
		return fmt.Errorf("%w: %s is absent, expected revision %d", ErrRevisionConflict, key, expected)
	}
	if current != expected {
		return fmt.Errorf("%w: %s is at %d, expected %d", ErrRevisionConflict, key, current, expected)
	}
	return nil
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
