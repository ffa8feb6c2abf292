package drive

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/internal/telemetry"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// ChangeType identifies a registry mutation.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change describes one applied registry mutation, delivered to OnChange
// subscribers after the store and the tree have been updated.
type Change struct {
	Type  ChangeType
	Drive Drive
}

// Mounter is the slice of the tree the registry drives. Split out as an
// interface so service tests can run against a fake without a volume.
type Mounter interface {
	HandleDrivesCreated(ctx context.Context, drives []Drive) error
	HandleDrivesDeleted(ctx context.Context, ids []uuid.UUID) error
	HandleDriveUpdated(ctx context.Context, d Drive) error

	// RootDir returns the volume root the drives live under, used to move
	// backing directories on rename.
	RootDir() string
}

// Metrics records registry activity. Implementations must be safe for
// concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// RecordChange counts one applied mutation, tagged by change type.
	RecordChange(op string)

	// SetDriveCount tracks the number of registered drives.
	SetDriveCount(n int)
}

// Service is the drive registry. It keeps the authoritative descriptor set in
// a Store, mirrors it in memory for lookups, and forwards lifecycle changes
// to the tree. All methods are safe for concurrent use.
type Service struct {
	mu              sync.RWMutex
	store           Store
	mounter         Mounter
	registry        map[uuid.UUID]*Drive
	names           map[string]uuid.UUID
	changeCallbacks []func(Change)

	metrics Metrics
}

// NewService creates a registry over the given store and tree. metrics may
// be nil. Call Restore before serving lookups so persisted drives are
// mounted.
func NewService(store Store, mounter Mounter, metrics Metrics) *Service {
	return &Service{
		store:    store,
		mounter:  mounter,
		registry: make(map[uuid.UUID]*Drive),
		names:    make(map[string]uuid.UUID),
		metrics:  metrics,
	}
}

// Restore replays every persisted descriptor into the tree. Descriptors that
// fail to mount are skipped with a warning so one bad drive cannot hold the
// rest of the volume hostage. Restore does not fire change callbacks; it
// reestablishes state, it does not change it.
func (s *Service) Restore(ctx context.Context) (err error) {
	ctx, span := telemetry.StartRegistrySpan(ctx, telemetry.SpanRegistryRestore)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	drives, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range drives {
		d := &drives[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		if takenBy, taken := s.names[d.Name]; taken {
			logger.WarnCtx(ctx, "drive restore skipped duplicate name",
				logger.Drive(d.Name),
				logger.DriveID(d.ID.String()),
				logger.NodeID(takenBy.String()),
			)
			continue
		}

		if err := s.mounter.HandleDrivesCreated(ctx, []Drive{*d}); err != nil {
			logger.WarnCtx(ctx, "drive restore skipped",
				logger.Drive(d.Name),
				logger.DriveID(d.ID.String()),
				logger.Err(err),
			)
			continue
		}

		s.registry[d.ID] = d.Clone()
		s.names[d.Name] = d.ID
	}

	s.setDriveCount(len(s.registry))
	span.SetAttributes(telemetry.Entries(len(s.registry)), telemetry.Skipped(len(drives)-len(s.registry)))
	logger.InfoCtx(ctx, "drive registry restored",
		logger.Entries(len(s.registry)),
		logger.Skipped(len(drives)-len(s.registry)),
	)
	return nil
}

// Create registers a new drive: persist the descriptor, mount its subtree,
// then publish the change. A nil identifier is assigned; a duplicate
// identifier or name fails with DriveExists. If mounting fails the persisted
// descriptor is rolled back.
func (s *Service) Create(ctx context.Context, d Drive) (created *Drive, err error) {
	ctx, span := telemetry.StartRegistrySpan(ctx, telemetry.SpanRegistryCreate,
		telemetry.DriveName(d.Name),
		telemetry.DriveOwner(d.Owner),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()

	if _, exists := s.registry[d.ID]; exists {
		s.mu.Unlock()
		return nil, nestfserrors.NewDriveExistsError(d.ID.String())
	}
	if _, exists := s.names[d.Name]; exists {
		s.mu.Unlock()
		return nil, nestfserrors.NewDriveExistsError(d.Name)
	}

	if err := s.store.Put(ctx, &d); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.mounter.HandleDrivesCreated(ctx, []Drive{d}); err != nil {
		if derr := s.store.Delete(ctx, d.ID); derr != nil {
			logger.ErrorCtx(ctx, "failed to roll back drive descriptor",
				logger.Drive(d.Name),
				logger.DriveID(d.ID.String()),
				logger.Err(derr),
			)
		}
		s.mu.Unlock()
		return nil, err
	}

	s.registry[d.ID] = d.Clone()
	s.names[d.Name] = d.ID
	count := len(s.registry)
	s.mu.Unlock()

	s.recordChange(ChangeCreated)
	s.setDriveCount(count)
	span.SetAttributes(telemetry.DriveID(d.ID.String()), telemetry.DriveAccess(d.Access.String()))
	logger.InfoCtx(ctx, "drive created",
		logger.Drive(d.Name),
		logger.DriveID(d.ID.String()),
		logger.Owner(d.Owner),
		logger.Access(d.Access.String()),
	)
	s.notifyChange(Change{Type: ChangeCreated, Drive: *d.Clone()})

	return d.Clone(), nil
}

// Update replaces a drive's descriptor. The identifier selects the drive and
// cannot change; everything else can, including the name, in which case the
// backing directory is renamed on disk before the tree is told. A name
// already held by another drive fails with DriveExists.
func (s *Service) Update(ctx context.Context, d Drive) (updated *Drive, err error) {
	ctx, span := telemetry.StartRegistrySpan(ctx, telemetry.SpanRegistryUpdate,
		telemetry.DriveName(d.Name),
		telemetry.DriveID(d.ID.String()),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if err := d.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()

	current, exists := s.registry[d.ID]
	if !exists {
		s.mu.Unlock()
		return nil, nestfserrors.NewDriveNotFoundError(d.ID.String())
	}

	renamed := current.Name != d.Name
	if renamed {
		if _, taken := s.names[d.Name]; taken {
			s.mu.Unlock()
			return nil, nestfserrors.NewDriveExistsError(d.Name)
		}
	}

	if err := s.store.Put(ctx, &d); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if renamed {
		oldPath := filepath.Join(s.mounter.RootDir(), current.Name)
		newPath := filepath.Join(s.mounter.RootDir(), d.Name)
		if err := os.Rename(oldPath, newPath); err != nil {
			if perr := s.store.Put(ctx, current); perr != nil {
				logger.ErrorCtx(ctx, "failed to roll back drive descriptor",
					logger.Drive(current.Name),
					logger.DriveID(current.ID.String()),
					logger.Err(perr),
				)
			}
			s.mu.Unlock()
			return nil, nestfserrors.NewIOError(oldPath, err)
		}
	}

	if err := s.mounter.HandleDriveUpdated(ctx, d); err != nil {
		// The store is authoritative; a restart reconciles the tree from it.
		logger.WarnCtx(ctx, "tree did not accept drive update",
			logger.Drive(d.Name),
			logger.DriveID(d.ID.String()),
			logger.Err(err),
		)
	}

	if renamed {
		delete(s.names, current.Name)
		s.names[d.Name] = d.ID
	}
	s.registry[d.ID] = d.Clone()
	s.mu.Unlock()

	s.recordChange(ChangeUpdated)
	logger.InfoCtx(ctx, "drive updated",
		logger.Drive(d.Name),
		logger.DriveID(d.ID.String()),
	)
	s.notifyChange(Change{Type: ChangeUpdated, Drive: *d.Clone()})

	return d.Clone(), nil
}

// Delete forgets a drive: remove the descriptor from the store, unmount its
// subtree, then publish the change. The backing directory stays on disk;
// deleting a drive abandons its registration, it does not destroy data.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartRegistrySpan(ctx, telemetry.SpanRegistryDelete,
		telemetry.DriveID(id.String()),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	s.mu.Lock()

	d, exists := s.registry[id]
	if !exists {
		s.mu.Unlock()
		return nestfserrors.NewDriveNotFoundError(id.String())
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.mu.Unlock()
		return err
	}

	unmountErr := s.mounter.HandleDrivesDeleted(ctx, []uuid.UUID{id})

	removed := *d.Clone()
	delete(s.registry, id)
	delete(s.names, d.Name)
	count := len(s.registry)
	s.mu.Unlock()

	if unmountErr != nil {
		// The descriptor is gone from the store; the stale subtree lasts at
		// most until the next restart.
		logger.WarnCtx(ctx, "drive unmount failed after delete",
			logger.Drive(removed.Name),
			logger.DriveID(id.String()),
			logger.Err(unmountErr),
		)
	}

	s.recordChange(ChangeDeleted)
	s.setDriveCount(count)
	logger.InfoCtx(ctx, "drive deleted",
		logger.Drive(removed.Name),
		logger.DriveID(id.String()),
	)
	s.notifyChange(Change{Type: ChangeDeleted, Drive: removed})

	return nil
}

// Get returns the drive with the given identifier.
func (s *Service) Get(id uuid.UUID) (*Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.registry[id]
	if !exists {
		return nil, nestfserrors.NewDriveNotFoundError(id.String())
	}
	return d.Clone(), nil
}

// GetByName returns the drive with the given name.
func (s *Service) GetByName(name string) (*Drive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.names[name]
	if !exists {
		return nil, nestfserrors.NewDriveNotFoundError(name)
	}
	return s.registry[id].Clone(), nil
}

// List returns every registered drive, sorted by name.
func (s *Service) List() []Drive {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drives := make([]Drive, 0, len(s.registry))
	for _, d := range s.registry {
		drives = append(drives, *d.Clone())
	}
	slices.SortFunc(drives, func(a, b Drive) int {
		return strings.Compare(a.Name, b.Name)
	})
	return drives
}

// Count returns the number of registered drives.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

// OnChange registers a callback invoked after every applied mutation.
// Callbacks run sequentially on the mutating goroutine and must not call
// back into the Service.
func (s *Service) OnChange(callback func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeCallbacks = append(s.changeCallbacks, callback)
}

// Healthcheck verifies the underlying store is operational.
func (s *Service) Healthcheck(ctx context.Context) error {
	return s.store.Healthcheck(ctx)
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// notifyChange must NOT be called while holding s.mu.
func (s *Service) notifyChange(c Change) {
	s.mu.RLock()
	callbacks := s.changeCallbacks
	s.mu.RUnlock()

	for _, cb := range callbacks {
		cb(c)
	}
}

func (s *Service) recordChange(t ChangeType) {
	if s.metrics != nil {
		s.metrics.RecordChange(string(t))
	}
}

func (s *Service) setDriveCount(n int) {
	if s.metrics != nil {
		s.metrics.SetDriveCount(n)
	}
}
