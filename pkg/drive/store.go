package drive

import (
	"context"

	"github.com/google/uuid"
)

// Store persists drive descriptors across restarts.
//
// A Store deals in descriptors only: mounting, unmounting, name bookkeeping
// and backing-directory management are Service concerns, and a Store never
// touches the volume. Implementations must be safe for concurrent use and
// must return descriptors decoupled from their internal state, so a caller
// mutating a returned Drive cannot corrupt the store.
//
// Errors use the shared taxonomy: a missing descriptor is DriveNotFound, a
// storage failure is IO.
type Store interface {
	// Put writes a descriptor, overwriting any previous version stored
	// under the same identifier.
	Put(ctx context.Context, d *Drive) error

	// Get returns the descriptor with the given identifier.
	Get(ctx context.Context, id uuid.UUID) (*Drive, error)

	// Delete removes the descriptor with the given identifier. Deleting an
	// absent descriptor fails with DriveNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns every stored descriptor, sorted by name.
	List(ctx context.Context) ([]Drive, error)

	// Healthcheck verifies the store can serve requests.
	Healthcheck(ctx context.Context) error

	// Close releases underlying resources. The store must not be used
	// afterwards.
	Close() error
}
