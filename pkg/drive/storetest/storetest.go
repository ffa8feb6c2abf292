// Package storetest provides a conformance test suite shared by drive store
// implementations. Store packages run it from their own tests:
//
//	func TestConformance(t *testing.T) {
//		storetest.RunConformanceSuite(t, func(t *testing.T) drive.Store {
//			return memory.New()
//		})
//	}
//
// The suite uses only the testing package, so implementations outside this
// module can run it without inheriting assertion dependencies.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/marmos91/nestfs/pkg/drive"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// StoreFactory creates a fresh Store instance for each test. The factory
// receives *testing.T so it can use t.TempDir() for stores that need
// filesystem paths and t.Cleanup() for teardown.
type StoreFactory func(t *testing.T) drive.Store

// RunConformanceSuite runs the full conformance suite against the provided
// store factory. Each test gets a fresh store instance to ensure isolation.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) { testPutAndGet(t, factory) })
	t.Run("PutOverwrites", func(t *testing.T) { testPutOverwrites(t, factory) })
	t.Run("PutRejectsNilIdentifier", func(t *testing.T) { testPutRejectsNilIdentifier(t, factory) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory) })
	t.Run("GetReturnsDetachedCopy", func(t *testing.T) { testGetReturnsDetachedCopy(t, factory) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, factory) })
	t.Run("ListSortedByName", func(t *testing.T) { testListSortedByName(t, factory) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, factory) })
	t.Run("Healthcheck", func(t *testing.T) { testHealthcheck(t, factory) })
	t.Run("ContextCancellation", func(t *testing.T) { testContextCancellation(t, factory) })
}

// newTestDrive builds a valid descriptor with a fresh identifier.
func newTestDrive(name string) *drive.Drive {
	return &drive.Drive{
		ID:        uuid.New(),
		Name:      name,
		Access:    drive.AccessPublic,
		Owner:     "alice",
		WriteList: []string{"alice"},
		ReadList:  []string{"bob"},
	}
}

// mustPut stores a descriptor, failing the test on error.
func mustPut(t *testing.T, store drive.Store, d *drive.Drive) {
	t.Helper()

	if err := store.Put(context.Background(), d); err != nil {
		t.Fatalf("Put(%q) failed: %v", d.Name, err)
	}
}

func testPutAndGet(t *testing.T, factory StoreFactory) {
	store := factory(t)
	d := newTestDrive("media")
	mustPut(t, store, d)

	got, err := store.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if got.ID != d.ID {
		t.Errorf("ID = %v, want %v", got.ID, d.ID)
	}
	if got.Name != d.Name {
		t.Errorf("Name = %q, want %q", got.Name, d.Name)
	}
	if got.Access != d.Access {
		t.Errorf("Access = %q, want %q", got.Access, d.Access)
	}
	if got.Owner != d.Owner {
		t.Errorf("Owner = %q, want %q", got.Owner, d.Owner)
	}
	if len(got.WriteList) != 1 || got.WriteList[0] != "alice" {
		t.Errorf("WriteList = %v, want [alice]", got.WriteList)
	}
	if len(got.ReadList) != 1 || got.ReadList[0] != "bob" {
		t.Errorf("ReadList = %v, want [bob]", got.ReadList)
	}
}

func testPutOverwrites(t *testing.T, factory StoreFactory) {
	store := factory(t)
	d := newTestDrive("media")
	mustPut(t, store, d)

	d.Name = "media-renamed"
	d.Access = drive.AccessPrivate
	mustPut(t, store, d)

	got, err := store.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get() after overwrite failed: %v", err)
	}
	if got.Name != "media-renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "media-renamed")
	}
	if got.Access != drive.AccessPrivate {
		t.Errorf("Access = %q, want %q", got.Access, drive.AccessPrivate)
	}

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d descriptors, want 1", len(list))
	}
}

func testPutRejectsNilIdentifier(t *testing.T, factory StoreFactory) {
	store := factory(t)

	d := newTestDrive("media")
	d.ID = uuid.Nil

	if err := store.Put(context.Background(), d); !nestfserrors.IsInvalidArgument(err) {
		t.Errorf("Put() with nil id returned %v, want InvalidArgument", err)
	}
}

func testGetMissing(t *testing.T, factory StoreFactory) {
	store := factory(t)

	_, err := store.Get(context.Background(), uuid.New())
	if !nestfserrors.IsDriveNotFound(err) {
		t.Errorf("Get() on missing id returned %v, want DriveNotFound", err)
	}
}

func testGetReturnsDetachedCopy(t *testing.T, factory StoreFactory) {
	store := factory(t)
	d := newTestDrive("media")
	mustPut(t, store, d)

	first, err := store.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	first.Name = "mutated"
	first.WriteList[0] = "mallory"

	second, err := store.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if second.Name != "media" {
		t.Errorf("stored Name changed to %q after caller mutation", second.Name)
	}
	if second.WriteList[0] != "alice" {
		t.Errorf("stored WriteList changed to %v after caller mutation", second.WriteList)
	}
}

func testDelete(t *testing.T, factory StoreFactory) {
	store := factory(t)
	d := newTestDrive("media")
	mustPut(t, store, d)

	if err := store.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	_, err := store.Get(context.Background(), d.ID)
	if !nestfserrors.IsDriveNotFound(err) {
		t.Errorf("Get() after delete returned %v, want DriveNotFound", err)
	}
}

func testDeleteMissing(t *testing.T, factory StoreFactory) {
	store := factory(t)

	err := store.Delete(context.Background(), uuid.New())
	if !nestfserrors.IsDriveNotFound(err) {
		t.Errorf("Delete() on missing id returned %v, want DriveNotFound", err)
	}
}

func testListSortedByName(t *testing.T, factory StoreFactory) {
	store := factory(t)

	for _, name := range []string{"zebra", "apps", "media"} {
		mustPut(t, store, newTestDrive(name))
	}

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() returned %d descriptors, want 3", len(list))
	}

	want := []string{"apps", "media", "zebra"}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("List()[%d].Name = %q, want %q", i, list[i].Name, name)
		}
	}
}

func testListEmpty(t *testing.T, factory StoreFactory) {
	store := factory(t)

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() on empty store returned %d descriptors, want 0", len(list))
	}
}

func testHealthcheck(t *testing.T, factory StoreFactory) {
	store := factory(t)

	if err := store.Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck() failed: %v", err)
	}
}

func testContextCancellation(t *testing.T, factory StoreFactory) {
	store := factory(t)
	d := newTestDrive("media")
	mustPut(t, store, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, newTestDrive("other")); err == nil {
		t.Error("Put() with canceled context succeeded, want error")
	}
	if _, err := store.Get(ctx, d.ID); err == nil {
		t.Error("Get() with canceled context succeeded, want error")
	}
	if _, err := store.List(ctx); err == nil {
		t.Error("List() with canceled context succeeded, want error")
	}
	if err := store.Delete(ctx, d.ID); err == nil {
		t.Error("Delete() with canceled context succeeded, want error")
	}
}
