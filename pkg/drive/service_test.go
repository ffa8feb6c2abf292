package drive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/drive"
	"github.com/marmos91/nestfs/pkg/drive/store/memory"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// fakeMounter records the lifecycle notifications a Service emits and mimics
// the tree's side effect of creating backing directories, so rename moves
// have something to move.
type fakeMounter struct {
	rootDir string

	mu         sync.Mutex
	created    []drive.Drive
	deleted    []uuid.UUID
	updated    []drive.Drive
	failCreate error
}

func newFakeMounter(t *testing.T) *fakeMounter {
	t.Helper()
	return &fakeMounter{rootDir: t.TempDir()}
}

func (m *fakeMounter) HandleDrivesCreated(ctx context.Context, drives []drive.Drive) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate != nil {
		return m.failCreate
	}
	for _, d := range drives {
		if err := os.MkdirAll(filepath.Join(m.rootDir, d.Name), 0o755); err != nil {
			return err
		}
		m.created = append(m.created, d)
	}
	return nil
}

func (m *fakeMounter) HandleDrivesDeleted(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *fakeMounter) HandleDriveUpdated(ctx context.Context, d drive.Drive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, d)
	return nil
}

func (m *fakeMounter) RootDir() string {
	return m.rootDir
}

func (m *fakeMounter) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func testDescriptor(name, owner string) drive.Drive {
	return drive.Drive{
		ID:     uuid.New(),
		Name:   name,
		Access: drive.AccessPrivate,
		Owner:  owner,
	}
}

func TestServiceCreate(t *testing.T) {
	t.Run("AssignsIdentifier", func(t *testing.T) {
		mounter := newFakeMounter(t)
		svc := drive.NewService(memory.New(), mounter, nil)

		d := testDescriptor("media", "alice")
		d.ID = uuid.Nil

		created, err := svc.Create(context.Background(), d)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
	})

	t.Run("PersistsAndMounts", func(t *testing.T) {
		store := memory.New()
		mounter := newFakeMounter(t)
		svc := drive.NewService(store, mounter, nil)

		created, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)

		persisted, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "media", persisted.Name)

		assert.Equal(t, 1, mounter.createdCount())
		assert.DirExists(t, filepath.Join(mounter.rootDir, "media"))
	})

	t.Run("DuplicateNameRejected", func(t *testing.T) {
		mounter := newFakeMounter(t)
		svc := drive.NewService(memory.New(), mounter, nil)

		_, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), testDescriptor("media", "bob"))
		require.Error(t, err)
		assert.True(t, nestfserrors.IsDriveExists(err))
	})

	t.Run("DuplicateIdentifierRejected", func(t *testing.T) {
		mounter := newFakeMounter(t)
		svc := drive.NewService(memory.New(), mounter, nil)

		d := testDescriptor("media", "alice")
		_, err := svc.Create(context.Background(), d)
		require.NoError(t, err)

		d.Name = "other"
		_, err = svc.Create(context.Background(), d)
		require.Error(t, err)
		assert.True(t, nestfserrors.IsDriveExists(err))
	})

	t.Run("InvalidDescriptorRejected", func(t *testing.T) {
		mounter := newFakeMounter(t)
		svc := drive.NewService(memory.New(), mounter, nil)

		d := testDescriptor("media", "")
		_, err := svc.Create(context.Background(), d)
		require.Error(t, err)
		assert.True(t, nestfserrors.IsDriveConfig(err))
	})

	t.Run("MountFailureRollsBackStore", func(t *testing.T) {
		store := memory.New()
		mounter := newFakeMounter(t)
		mounter.failCreate = errors.New("volume unavailable")
		svc := drive.NewService(store, mounter, nil)

		d := testDescriptor("media", "alice")
		_, err := svc.Create(context.Background(), d)
		require.Error(t, err)

		_, err = store.Get(context.Background(), d.ID)
		assert.True(t, nestfserrors.IsDriveNotFound(err))
		assert.Equal(t, 0, svc.Count())
	})
}

func TestServiceRestore(t *testing.T) {
	t.Run("MountsPersistedDrives", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(context.Background(), ptr(testDescriptor("media", "alice"))))
		require.NoError(t, store.Put(context.Background(), ptr(testDescriptor("apps", "bob"))))

		mounter := newFakeMounter(t)
		svc := drive.NewService(store, mounter, nil)
		require.NoError(t, svc.Restore(context.Background()))

		assert.Equal(t, 2, svc.Count())
		assert.Equal(t, 2, mounter.createdCount())

		d, err := svc.GetByName("media")
		require.NoError(t, err)
		assert.Equal(t, "alice", d.Owner)
	})

	t.Run("SkipsUnmountableDrives", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(context.Background(), ptr(testDescriptor("media", "alice"))))

		mounter := newFakeMounter(t)
		mounter.failCreate = errors.New("volume unavailable")
		svc := drive.NewService(store, mounter, nil)

		require.NoError(t, svc.Restore(context.Background()))
		assert.Equal(t, 0, svc.Count())
	})

	t.Run("SkipsDuplicateNames", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(context.Background(), ptr(testDescriptor("media", "alice"))))
		require.NoError(t, store.Put(context.Background(), ptr(testDescriptor("media", "bob"))))

		mounter := newFakeMounter(t)
		svc := drive.NewService(store, mounter, nil)

		require.NoError(t, svc.Restore(context.Background()))
		assert.Equal(t, 1, svc.Count())
	})

	t.Run("FiresNoChangeCallbacks", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Put(context.Background(), ptr(testDescriptor("media", "alice"))))

		svc := drive.NewService(store, newFakeMounter(t), nil)

		var events []drive.Change
		svc.OnChange(func(c drive.Change) {
			events = append(events, c)
		})

		require.NoError(t, svc.Restore(context.Background()))
		assert.Empty(t, events)
	})
}

func TestServiceUpdate(t *testing.T) {
	t.Run("ReplacesDescriptor", func(t *testing.T) {
		mounter := newFakeMounter(t)
		svc := drive.NewService(memory.New(), mounter, nil)

		created, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)

		updated := *created
		updated.Access = drive.AccessPublic
		updated.WriteList = []string{"bob"}

		result, err := svc.Update(context.Background(), updated)
		require.NoError(t, err)
		assert.Equal(t, drive.AccessPublic, result.Access)

		got, err := svc.Get(created.ID)
		require.NoError(t, err)
		assert.Equal(t, drive.AccessPublic, got.Access)
		assert.Equal(t, []string{"bob"}, got.WriteList)
	})

	t.Run("RenameMovesBackingDirectory", func(t *testing.T) {
		mounter := newFakeMounter(t)
		svc := drive.NewService(memory.New(), mounter, nil)

		created, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(mounter.rootDir, "media", "keep.txt"), []byte("x"), 0o644))

		updated := *created
		updated.Name = "media-archive"
		_, err = svc.Update(context.Background(), updated)
		require.NoError(t, err)

		assert.NoDirExists(t, filepath.Join(mounter.rootDir, "media"))
		assert.FileExists(t, filepath.Join(mounter.rootDir, "media-archive", "keep.txt"))

		_, err = svc.GetByName("media")
		assert.True(t, nestfserrors.IsDriveNotFound(err))

		d, err := svc.GetByName("media-archive")
		require.NoError(t, err)
		assert.Equal(t, created.ID, d.ID)
	})

	t.Run("RenameConflictRejected", func(t *testing.T) {
		mounter := newFakeMounter(t)
		svc := drive.NewService(memory.New(), mounter, nil)

		_, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)
		second, err := svc.Create(context.Background(), testDescriptor("apps", "alice"))
		require.NoError(t, err)

		renamed := *second
		renamed.Name = "media"
		_, err = svc.Update(context.Background(), renamed)
		require.Error(t, err)
		assert.True(t, nestfserrors.IsDriveExists(err))
	})

	t.Run("UnknownDriveFails", func(t *testing.T) {
		svc := drive.NewService(memory.New(), newFakeMounter(t), nil)

		_, err := svc.Update(context.Background(), testDescriptor("media", "alice"))
		require.Error(t, err)
		assert.True(t, nestfserrors.IsDriveNotFound(err))
	})
}

func TestServiceDelete(t *testing.T) {
	t.Run("ForgetsDriveKeepsData", func(t *testing.T) {
		store := memory.New()
		mounter := newFakeMounter(t)
		svc := drive.NewService(store, mounter, nil)

		created, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), created.ID))

		assert.Equal(t, 0, svc.Count())
		_, err = store.Get(context.Background(), created.ID)
		assert.True(t, nestfserrors.IsDriveNotFound(err))

		mounter.mu.Lock()
		deleted := append([]uuid.UUID(nil), mounter.deleted...)
		mounter.mu.Unlock()
		require.Len(t, deleted, 1)
		assert.Equal(t, created.ID, deleted[0])

		// Deleting a drive abandons the registration, never the data.
		assert.DirExists(t, filepath.Join(mounter.rootDir, "media"))
	})

	t.Run("UnknownDriveFails", func(t *testing.T) {
		svc := drive.NewService(memory.New(), newFakeMounter(t), nil)

		err := svc.Delete(context.Background(), uuid.New())
		require.Error(t, err)
		assert.True(t, nestfserrors.IsDriveNotFound(err))
	})
}

func TestServiceLookups(t *testing.T) {
	mounter := newFakeMounter(t)
	svc := drive.NewService(memory.New(), mounter, nil)

	for _, name := range []string{"zebra", "apps", "media"} {
		_, err := svc.Create(context.Background(), testDescriptor(name, "alice"))
		require.NoError(t, err)
	}

	t.Run("ListSortedByName", func(t *testing.T) {
		list := svc.List()
		require.Len(t, list, 3)
		assert.Equal(t, "apps", list[0].Name)
		assert.Equal(t, "media", list[1].Name)
		assert.Equal(t, "zebra", list[2].Name)
	})

	t.Run("GetReturnsDetachedCopy", func(t *testing.T) {
		d, err := svc.GetByName("media")
		require.NoError(t, err)

		d.Owner = "mallory"
		again, err := svc.GetByName("media")
		require.NoError(t, err)
		assert.Equal(t, "alice", again.Owner)
	})

	t.Run("UnknownLookupsFail", func(t *testing.T) {
		_, err := svc.Get(uuid.New())
		assert.True(t, nestfserrors.IsDriveNotFound(err))

		_, err = svc.GetByName("missing")
		assert.True(t, nestfserrors.IsDriveNotFound(err))
	})

	t.Run("Count", func(t *testing.T) {
		assert.Equal(t, 3, svc.Count())
	})

	t.Run("Healthcheck", func(t *testing.T) {
		assert.NoError(t, svc.Healthcheck(context.Background()))
	})
}

func TestServiceOnChange(t *testing.T) {
	t.Run("DeliversLifecycleInOrder", func(t *testing.T) {
		svc := drive.NewService(memory.New(), newFakeMounter(t), nil)

		var events []drive.Change
		svc.OnChange(func(c drive.Change) {
			events = append(events, c)
		})

		created, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)

		updated := *created
		updated.Access = drive.AccessPublic
		_, err = svc.Update(context.Background(), updated)
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), created.ID))

		require.Len(t, events, 3)
		assert.Equal(t, drive.ChangeCreated, events[0].Type)
		assert.Equal(t, drive.ChangeUpdated, events[1].Type)
		assert.Equal(t, drive.ChangeDeleted, events[2].Type)
		assert.Equal(t, "media", events[2].Drive.Name)
	})

	t.Run("LateSubscriberSeesOnlyLaterChanges", func(t *testing.T) {
		svc := drive.NewService(memory.New(), newFakeMounter(t), nil)

		created, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
		require.NoError(t, err)

		var events []drive.Change
		svc.OnChange(func(c drive.Change) {
			events = append(events, c)
		})

		require.NoError(t, svc.Delete(context.Background(), created.ID))

		require.Len(t, events, 1)
		assert.Equal(t, drive.ChangeDeleted, events[0].Type)
	})
}

type captureRegistryMetrics struct {
	mu      sync.Mutex
	changes map[string]int
	count   int
}

func (m *captureRegistryMetrics) RecordChange(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.changes == nil {
		m.changes = make(map[string]int)
	}
	m.changes[op]++
}

func (m *captureRegistryMetrics) SetDriveCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = n
}

func TestServiceMetrics(t *testing.T) {
	metrics := &captureRegistryMetrics{}
	svc := drive.NewService(memory.New(), newFakeMounter(t), metrics)

	created, err := svc.Create(context.Background(), testDescriptor("media", "alice"))
	require.NoError(t, err)

	updated := *created
	updated.Access = drive.AccessPublic
	_, err = svc.Update(context.Background(), updated)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.changes[string(drive.ChangeCreated)])
	assert.Equal(t, 1, metrics.changes[string(drive.ChangeUpdated)])
	assert.Equal(t, 1, metrics.changes[string(drive.ChangeDeleted)])
	assert.Equal(t, 0, metrics.count)
}

func ptr(d drive.Drive) *drive.Drive {
	return &d
}
