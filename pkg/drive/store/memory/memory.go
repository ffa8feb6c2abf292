// Package memory provides an in-memory drive descriptor store.
//
// Descriptors live in a mutex-guarded map and do not survive a restart,
// which makes this store suitable for tests and ephemeral setups only.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// Store is an in-memory drive.Store implementation.
type Store struct {
	mu     sync.RWMutex
	drives map[uuid.UUID]*drive.Drive
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		drives: make(map[uuid.UUID]*drive.Drive),
	}
}

// Put writes a descriptor, overwriting any previous version stored under the
// same identifier.
func (s *Store) Put(ctx context.Context, d *drive.Drive) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d == nil || d.ID == uuid.Nil {
		return nestfserrors.NewInvalidArgumentError("descriptor and its id must be set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.drives[d.ID] = d.Clone()
	return nil
}

// Get returns the descriptor with the given identifier.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*drive.Drive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.drives[id]
	if !exists {
		return nil, nestfserrors.NewDriveNotFoundError(id.String())
	}
	return d.Clone(), nil
}

// Delete removes the descriptor with the given identifier.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drives[id]; !exists {
		return nestfserrors.NewDriveNotFoundError(id.String())
	}
	delete(s.drives, id)
	return nil
}

// List returns every stored descriptor, sorted by name.
func (s *Store) List(ctx context.Context) ([]drive.Drive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	drives := make([]drive.Drive, 0, len(s.drives))
	for _, d := range s.drives {
		drives = append(drives, *d.Clone())
	}
	slices.SortFunc(drives, func(a, b drive.Drive) int {
		return strings.Compare(a.Name, b.Name)
	})
	return drives, nil
}

// Healthcheck verifies the store can serve requests. An in-memory store is
// healthy as long as the context is.
func (s *Store) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close releases resources. There is nothing to release in memory.
func (s *Store) Close() error {
	return nil
}
