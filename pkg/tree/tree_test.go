package tree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/attrcache"
	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	return New(t.TempDir(), attrcache.New(nil), nil)
}

func dirSummary(name string) *attrcache.Summary {
	return &attrcache.Summary{
		ID:    uuid.New(),
		Type:  attrcache.EntryDirectory,
		Name:  name,
		MTime: 1000,
	}
}

func fileSummary(name string) *attrcache.Summary {
	return &attrcache.Summary{
		ID:    uuid.New(),
		Type:  attrcache.EntryFile,
		Name:  name,
		MTime: 1000,
		Size:  42,
		Magic: "3;text/plain; charset=utf-8",
	}
}

// mountTestDrive attaches a drive through the public lifecycle entry point.
func mountTestDrive(t *testing.T, tr *Tree, d *drive.Drive) *Node {
	t.Helper()
	require.NoError(t, tr.HandleDrivesCreated(context.Background(), []drive.Drive{*d}))
	n := tr.Lookup(d.ID)
	require.NotNil(t, n)
	return n
}

func TestTreeNew(t *testing.T) {
	dir := t.TempDir()
	tr := New(dir+string(os.PathSeparator), attrcache.New(nil), nil)

	assert.Equal(t, dir, tr.RootDir(), "root dir is cleaned")
	assert.Equal(t, KindRoot, tr.Root().Kind())
	assert.Equal(t, dir, tr.Root().Name())
	assert.Zero(t, tr.NodeCount())
}

func TestCreateNode(t *testing.T) {
	t.Run("DirectoryAndFile", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))

		ds := dirSummary("photos")
		dirID, err := tr.CreateNode(drv, ds)
		require.NoError(t, err)
		assert.Equal(t, ds.ID, dirID)

		dir := tr.Lookup(dirID)
		require.NotNil(t, dir)
		assert.Equal(t, KindDirectory, dir.Kind())
		assert.Equal(t, drv, dir.Parent())

		fs := fileSummary("cat.jpg")
		fileID, err := tr.CreateNode(dir, fs)
		require.NoError(t, err)

		file := tr.Lookup(fileID)
		require.NotNil(t, file)
		assert.Equal(t, KindFile, file.Kind())
		assert.Equal(t, int64(42), file.Size())
		assert.Equal(t, 3, tr.NodeCount())
	})

	t.Run("DuplicateIdentifierFails", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))

		s := fileSummary("a.txt")
		_, err := tr.CreateNode(drv, s)
		require.NoError(t, err)

		_, err = tr.CreateNode(drv, s)
		assert.True(t, nestfserrors.IsNodeAttached(err))
	})

	t.Run("FileParentFails", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))
		fileID, err := tr.CreateNode(drv, fileSummary("a.txt"))
		require.NoError(t, err)

		_, err = tr.CreateNode(tr.Lookup(fileID), fileSummary("b.txt"))
		assert.True(t, nestfserrors.IsNotContainer(err))
	})

	t.Run("ForeignParentFails", func(t *testing.T) {
		tr := newTestTree(t)
		other := newTestTree(t)
		foreign := mountTestDrive(t, other, testDrive("media", "alice"))

		_, err := tr.CreateNode(foreign, fileSummary("a.txt"))
		assert.True(t, nestfserrors.IsNodeDetached(err))
	})

	t.Run("UnknownSummaryTypeFails", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))

		_, err := tr.CreateNode(drv, &attrcache.Summary{ID: uuid.New(), Name: "x"})
		assert.True(t, nestfserrors.IsInvalidArgument(err))
	})

	t.Run("NilArgumentsFail", func(t *testing.T) {
		tr := newTestTree(t)
		_, err := tr.CreateNode(nil, fileSummary("a.txt"))
		assert.True(t, nestfserrors.IsInvalidArgument(err))
	})
}

func TestUpdateNode(t *testing.T) {
	t.Run("AppliesMutableFields", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))
		s := fileSummary("a.txt")
		id, err := tr.CreateNode(drv, s)
		require.NoError(t, err)
		n := tr.Lookup(id)

		updated := *s
		updated.Name = "renamed.txt"
		updated.MTime = 2000
		updated.Size = 99
		updated.Hash = "aa"
		require.NoError(t, tr.UpdateNode(n, &updated))

		assert.Equal(t, "renamed.txt", n.Name())
		assert.Equal(t, int64(2000), n.MTime())
		assert.Equal(t, int64(99), n.Size())
		assert.Equal(t, "aa", n.Hash())
		assert.Equal(t, id, n.ID(), "identity unchanged")
		assert.Equal(t, drv, n.Parent(), "position unchanged")
	})

	t.Run("IdentityChangeRejected", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))
		id, err := tr.CreateNode(drv, fileSummary("a.txt"))
		require.NoError(t, err)

		err = tr.UpdateNode(tr.Lookup(id), fileSummary("a.txt"))
		assert.True(t, nestfserrors.IsIdentityMismatch(err))
	})
}

func TestDeleteNode(t *testing.T) {
	t.Run("RemovesSubtreeFromIndex", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))
		dirID, err := tr.CreateNode(drv, dirSummary("photos"))
		require.NoError(t, err)
		dir := tr.Lookup(dirID)
		childID, err := tr.CreateNode(dir, fileSummary("cat.jpg"))
		require.NoError(t, err)

		require.NoError(t, tr.DeleteNode(dir))

		assert.Nil(t, tr.Lookup(dirID))
		assert.Nil(t, tr.Lookup(childID), "children leave the index with their parent")
		assert.NotNil(t, tr.Lookup(drv.ID()))
		assert.Empty(t, drv.Children())
	})

	t.Run("RootRejected", func(t *testing.T) {
		tr := newTestTree(t)
		err := tr.DeleteNode(tr.Root())
		assert.True(t, nestfserrors.IsInvalidArgument(err))
	})

	t.Run("DetachedNodeRejected", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))
		id, err := tr.CreateNode(drv, fileSummary("a.txt"))
		require.NoError(t, err)
		n := tr.Lookup(id)
		require.NoError(t, tr.DeleteNode(n))

		err = tr.DeleteNode(n)
		assert.True(t, nestfserrors.IsNodeDetached(err))
	})
}

func TestHandleDrivesCreated(t *testing.T) {
	t.Run("MountsAndStampsBackingDirectory", func(t *testing.T) {
		tr := newTestTree(t)
		cache := attrcache.New(nil)
		d := testDrive("media", "alice")

		require.NoError(t, tr.HandleDrivesCreated(context.Background(), []drive.Drive{*d}))

		n := tr.Lookup(d.ID)
		require.NotNil(t, n)
		assert.Equal(t, KindDrive, n.Kind())
		assert.Equal(t, "media", n.Name())
		require.NotNil(t, n.Drive())
		assert.Equal(t, d.Owner, n.Drive().Owner)

		// Backing directory exists and carries the descriptor's identity.
		path := filepath.Join(tr.RootDir(), "media")
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		summary, err := cache.Read(path)
		require.NoError(t, err)
		assert.Equal(t, d.ID, summary.ID)
	})

	t.Run("ExistingDriveRefreshed", func(t *testing.T) {
		tr := newTestTree(t)
		d := testDrive("media", "alice")
		n := mountTestDrive(t, tr, d)

		updated := *d
		updated.Access = drive.AccessPublic
		updated.WriteList = []string{"bob"}
		require.NoError(t, tr.HandleDrivesCreated(context.Background(), []drive.Drive{updated}))

		assert.Equal(t, n, tr.Lookup(d.ID), "node identity preserved")
		assert.Equal(t, drive.AccessPublic, n.Drive().Access)
	})

	t.Run("InvalidDriveDoesNotStopOthers", func(t *testing.T) {
		tr := newTestTree(t)
		bad := drive.Drive{Name: "broken"}
		good := testDrive("media", "alice")

		err := tr.HandleDrivesCreated(context.Background(), []drive.Drive{bad, *good})
		require.Error(t, err)
		assert.NotNil(t, tr.Lookup(good.ID), "valid drive mounted despite earlier failure")
	})
}

func TestHandleDrivesDeleted(t *testing.T) {
	t.Run("RemovesSubtree", func(t *testing.T) {
		tr := newTestTree(t)
		d := testDrive("media", "alice")
		drv := mountTestDrive(t, tr, d)
		fileID, err := tr.CreateNode(drv, fileSummary("a.txt"))
		require.NoError(t, err)

		require.NoError(t, tr.HandleDrivesDeleted(context.Background(), []uuid.UUID{d.ID}))

		assert.Nil(t, tr.Lookup(d.ID))
		assert.Nil(t, tr.Lookup(fileID))
		assert.Zero(t, tr.NodeCount())
	})

	t.Run("UnknownIdentifierSkipped", func(t *testing.T) {
		tr := newTestTree(t)
		assert.NoError(t, tr.HandleDrivesDeleted(context.Background(), []uuid.UUID{uuid.New()}))
	})

	t.Run("NonDriveIdentifierSkipped", func(t *testing.T) {
		tr := newTestTree(t)
		drv := mountTestDrive(t, tr, testDrive("media", "alice"))
		fileID, err := tr.CreateNode(drv, fileSummary("a.txt"))
		require.NoError(t, err)

		require.NoError(t, tr.HandleDrivesDeleted(context.Background(), []uuid.UUID{fileID}))
		assert.NotNil(t, tr.Lookup(fileID), "only drive nodes are unmounted")
	})
}

func TestHandleDriveUpdated(t *testing.T) {
	t.Run("ReplacesDescriptorInPlace", func(t *testing.T) {
		tr := newTestTree(t)
		d := testDrive("media", "alice")
		drv := mountTestDrive(t, tr, d)
		childID, err := tr.CreateNode(drv, fileSummary("a.txt"))
		require.NoError(t, err)

		updated := *d
		updated.Access = drive.AccessPublic
		updated.ReadList = []string{"bob"}
		require.NoError(t, tr.HandleDriveUpdated(context.Background(), updated))

		assert.Equal(t, drive.AccessPublic, drv.Drive().Access)
		assert.Equal(t, []string{"bob"}, drv.Drive().ReadList)
		assert.NotNil(t, tr.Lookup(childID), "children unaffected")
	})

	t.Run("UnknownDriveFails", func(t *testing.T) {
		tr := newTestTree(t)
		err := tr.HandleDriveUpdated(context.Background(), *testDrive("media", "alice"))
		assert.True(t, nestfserrors.IsNodeNotFound(err))
	})
}

// TestDriveLifecycleEndToEnd walks the full scenario: mount a drive, attach
// three files, delete one, then unmount the drive and verify the index is
// empty.
func TestDriveLifecycleEndToEnd(t *testing.T) {
	tr := newTestTree(t)
	d1 := testDrive("d1", "alice")
	drv := mountTestDrive(t, tr, d1)

	aID, err := tr.CreateNode(drv, fileSummary("a.txt"))
	require.NoError(t, err)
	bID, err := tr.CreateNode(drv, fileSummary("b.txt"))
	require.NoError(t, err)
	cID, err := tr.CreateNode(drv, fileSummary("c.txt"))
	require.NoError(t, err)

	require.NoError(t, tr.DeleteNode(tr.Lookup(bID)))

	assert.Nil(t, tr.Lookup(bID))
	assert.NotNil(t, tr.Lookup(aID))
	assert.NotNil(t, tr.Lookup(cID))

	require.NoError(t, tr.HandleDrivesDeleted(context.Background(), []uuid.UUID{d1.ID}))

	assert.Nil(t, tr.Lookup(aID))
	assert.Nil(t, tr.Lookup(cID))
	assert.Nil(t, tr.Lookup(d1.ID))
	assert.Zero(t, tr.NodeCount())
}
