package tree

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nestfs/pkg/drive"
)

// probeFixture is a tree over a real temp volume with one mounted drive.
type probeFixture struct {
	tree  *Tree
	drive *Node
	root  string
}

func newProbeFixture(t *testing.T) *probeFixture {
	t.Helper()
	tr := newTestTree(t)
	d := testDrive("media", "alice")
	drv := mountTestDrive(t, tr, d)
	return &probeFixture{
		tree:  tr,
		drive: drv,
		root:  filepath.Join(tr.RootDir(), "media"),
	}
}

func (f *probeFixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *probeFixture) probe(t *testing.T) {
	t.Helper()
	require.NoError(t, f.tree.Probe(context.Background(), f.drive.ID()))
}

func findChild(n *Node, name string) *Node {
	for _, c := range n.Children() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestProbe(t *testing.T) {
	t.Run("ScanPopulatesTree", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "a.txt", "alpha")
		f.write(t, "b.txt", "bravo")
		f.write(t, "photos/cat.jpg", "not really a jpeg")

		f.probe(t)

		a := findChild(f.drive, "a.txt")
		require.NotNil(t, a)
		assert.Equal(t, KindFile, a.Kind())
		assert.Equal(t, int64(len("alpha")), a.Size())
		assert.NotEmpty(t, a.Magic())
		assert.Empty(t, a.Hash(), "no digest before hashing")

		photos := findChild(f.drive, "photos")
		require.NotNil(t, photos)
		assert.Equal(t, KindDirectory, photos.Kind())

		cat := findChild(photos, "cat.jpg")
		require.NotNil(t, cat)
		assert.Equal(t, cat, f.tree.Lookup(cat.ID()), "nested entries indexed")

		// drive + 2 files + dir + nested file
		assert.Equal(t, 5, f.tree.NodeCount())
	})

	t.Run("IdentityStableAcrossProbes", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "a.txt", "alpha")

		f.probe(t)
		first := findChild(f.drive, "a.txt").ID()

		f.probe(t)
		assert.Equal(t, first, findChild(f.drive, "a.txt").ID())
	})

	t.Run("RenameKeepsIdentity", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "a.txt", "alpha")
		f.probe(t)
		id := findChild(f.drive, "a.txt").ID()

		require.NoError(t, os.Rename(
			filepath.Join(f.root, "a.txt"),
			filepath.Join(f.root, "z.txt"),
		))
		f.probe(t)

		n := f.tree.Lookup(id)
		require.NotNil(t, n, "identity survives rename")
		assert.Equal(t, "z.txt", n.Name())
		assert.Nil(t, findChild(f.drive, "a.txt"))
	})

	t.Run("RemovalPrunes", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "a.txt", "alpha")
		f.write(t, "photos/cat.jpg", "meow")
		f.probe(t)
		aID := findChild(f.drive, "a.txt").ID()
		photos := findChild(f.drive, "photos")
		catID := findChild(photos, "cat.jpg").ID()

		require.NoError(t, os.RemoveAll(filepath.Join(f.root, "photos")))
		f.probe(t)

		assert.Nil(t, f.tree.Lookup(photos.ID()))
		assert.Nil(t, f.tree.Lookup(catID), "descendants pruned with their directory")
		assert.NotNil(t, f.tree.Lookup(aID))
	})

	t.Run("ReplacementSwapsIdentity", func(t *testing.T) {
		f := newProbeFixture(t)
		path := f.write(t, "a.txt", "alpha")
		f.probe(t)
		oldID := findChild(f.drive, "a.txt").ID()

		require.NoError(t, os.Remove(path))
		f.write(t, "a.txt", "completely new content")
		f.probe(t)

		n := findChild(f.drive, "a.txt")
		require.NotNil(t, n)
		assert.NotEqual(t, oldID, n.ID(), "replacement gets a fresh identity")
		assert.Nil(t, f.tree.Lookup(oldID))
	})

	t.Run("MoveAcrossDirectoriesKeepsIdentity", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "sub1/f.txt", "payload")
		f.write(t, "sub2/keep.txt", "other")
		f.probe(t)
		sub1 := findChild(f.drive, "sub1")
		id := findChild(sub1, "f.txt").ID()

		require.NoError(t, os.Rename(
			filepath.Join(f.root, "sub1", "f.txt"),
			filepath.Join(f.root, "sub2", "f.txt"),
		))
		f.probe(t)

		n := f.tree.Lookup(id)
		require.NotNil(t, n, "identity survives the move")
		assert.Equal(t, "sub2", n.Parent().Name())
		assert.Nil(t, findChild(f.tree.Lookup(sub1.ID()), "f.txt"))
	})

	t.Run("ModifiedFileUpdated", func(t *testing.T) {
		f := newProbeFixture(t)
		path := f.write(t, "a.txt", "alpha")
		f.probe(t)
		n := findChild(f.drive, "a.txt")
		before := n.MTime()

		require.NoError(t, os.WriteFile(path, []byte("alpha plus more"), 0o644))
		later := time.UnixMilli(before + 5000)
		require.NoError(t, os.Chtimes(path, later, later))
		f.probe(t)

		assert.Equal(t, int64(len("alpha plus more")), n.Size())
		assert.NotEqual(t, before, n.MTime())
	})

	t.Run("HiddenAndSpecialEntriesSkipped", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, ".hidden", "x")
		target := f.write(t, "real.txt", "y")
		require.NoError(t, os.Symlink(target, filepath.Join(f.root, "link")))

		f.probe(t)

		assert.Nil(t, findChild(f.drive, ".hidden"))
		assert.Nil(t, findChild(f.drive, "link"))
		assert.NotNil(t, findChild(f.drive, "real.txt"))
	})

	t.Run("UnknownIdentifierIgnored", func(t *testing.T) {
		f := newProbeFixture(t)
		assert.NoError(t, f.tree.Probe(context.Background(), uuid.New()))
	})

	t.Run("FileIdentifierIgnored", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "a.txt", "alpha")
		f.probe(t)
		id := findChild(f.drive, "a.txt").ID()

		assert.NoError(t, f.tree.Probe(context.Background(), id))
	})

	t.Run("CanceledContextAborts", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "a.txt", "alpha")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := f.tree.Probe(ctx, f.drive.ID())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, f.tree.NodeCount(), "nothing attached from an aborted scan")
	})

	t.Run("NoProbesInFlightAfterReturn", func(t *testing.T) {
		f := newProbeFixture(t)
		f.write(t, "a.txt", "alpha")
		f.probe(t)
		assert.Zero(t, f.tree.ProbesInFlight())
	})
}

// TestProbeAfterDriveRestore mirrors a restart: a second tree over the same
// volume rebuilds the same identities from the persisted attributes.
func TestProbeAfterDriveRestore(t *testing.T) {
	f := newProbeFixture(t)
	f.write(t, "a.txt", "alpha")
	f.write(t, "photos/cat.jpg", "meow")
	f.probe(t)
	aID := findChild(f.drive, "a.txt").ID()
	photosID := findChild(f.drive, "photos").ID()

	restored := New(f.tree.RootDir(), f.tree.attrs, nil)
	require.NoError(t, restored.HandleDrivesCreated(
		context.Background(),
		[]drive.Drive{*f.drive.Drive()},
	))
	require.NoError(t, restored.Probe(context.Background(), f.drive.ID()))

	assert.NotNil(t, restored.Lookup(aID), "file identity survives restart")
	assert.NotNil(t, restored.Lookup(photosID), "directory identity survives restart")
}
