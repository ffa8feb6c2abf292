package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// gatheredNames collects the metric family names exposed by a registry.
// Vector metrics only appear after their first observation, so tests must
// touch every method before asserting.
func gatheredNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func assertNames(t *testing.T, reg *prometheus.Registry, want []string) {
	t.Helper()

	names := gatheredNames(t, reg)
	for _, name := range want {
		if !names[name] {
			t.Errorf("Expected %s metric", name)
		}
	}
}

func TestAttrCacheMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newAttrCacheMetrics(registry)

	m.RecordRead("file", true)
	m.RecordRead("directory", false)
	m.RecordRepair("missing_record")
	m.RecordHashCommit("committed")
	m.RecordSniff()

	assertNames(t, registry, []string{
		"nestfs_attrcache_reads_total",
		"nestfs_attrcache_repairs_total",
		"nestfs_attrcache_hash_commits_total",
		"nestfs_attrcache_sniffs_total",
	})
}

func TestTreeMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newTreeMetrics(registry)

	m.NodeAttached("file")
	m.NodeDetached("file")
	m.ProbeStarted()
	m.ProbeFinished(12.5)
	m.RecordScan(10, 2)

	assertNames(t, registry, []string{
		"nestfs_tree_nodes_attached_total",
		"nestfs_tree_nodes_detached_total",
		"nestfs_tree_probes_in_flight",
		"nestfs_tree_probe_duration_milliseconds",
		"nestfs_tree_scanned_entries_total",
		"nestfs_tree_skipped_entries_total",
	})
}

func TestHasherMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newHasherMetrics(registry)

	m.RecordEnqueued()
	m.RecordDropped()
	m.RecordOutcome("committed", 250)
	m.SetQueueDepth(3)

	assertNames(t, registry, []string{
		"nestfs_hasher_enqueued_total",
		"nestfs_hasher_dropped_total",
		"nestfs_hasher_jobs_total",
		"nestfs_hasher_job_duration_milliseconds",
		"nestfs_hasher_queue_depth",
	})
}

func TestDriveMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newDriveMetrics(registry)

	m.RecordChange("created")
	m.SetDriveCount(2)

	assertNames(t, registry, []string{
		"nestfs_drives_changes_total",
		"nestfs_drives_registered",
	})
}

func TestWatcherMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newWatcherMetrics(registry)

	m.RecordEvent("CREATE")
	m.RecordProbe(5)
	m.SetWatchCount(4)

	assertNames(t, registry, []string{
		"nestfs_watcher_events_total",
		"nestfs_watcher_probes_total",
		"nestfs_watcher_probe_duration_milliseconds",
		"nestfs_watcher_watched_directories",
	})
}

// TestNilReceiversAreSafe documents the contract the gated constructors
// rely on: a nil implementation absorbs every call.
func TestNilReceiversAreSafe(t *testing.T) {
	var ac *attrCacheMetrics
	ac.RecordRead("file", false)
	ac.RecordRepair("missing_record")
	ac.RecordHashCommit("committed")
	ac.RecordSniff()

	var tm *treeMetrics
	tm.NodeAttached("file")
	tm.NodeDetached("file")
	tm.ProbeStarted()
	tm.ProbeFinished(1)
	tm.RecordScan(1, 0)

	var hm *hasherMetrics
	hm.RecordEnqueued()
	hm.RecordDropped()
	hm.RecordOutcome("error", 1)
	hm.SetQueueDepth(0)

	var dm *driveMetrics
	dm.RecordChange("created")
	dm.SetDriveCount(0)

	var wm *watcherMetrics
	wm.RecordEvent("WRITE")
	wm.RecordProbe(1)
	wm.SetWatchCount(0)
}

// TestConstructorsGateOnRegistry relies on no test in this package calling
// metrics.InitRegistry, so the process registry stays unset.
func TestConstructorsGateOnRegistry(t *testing.T) {
	if NewAttrCacheMetrics() != nil {
		t.Error("NewAttrCacheMetrics should return nil before InitRegistry")
	}
	if NewTreeMetrics() != nil {
		t.Error("NewTreeMetrics should return nil before InitRegistry")
	}
	if NewHasherMetrics() != nil {
		t.Error("NewHasherMetrics should return nil before InitRegistry")
	}
	if NewDriveMetrics() != nil {
		t.Error("NewDriveMetrics should return nil before InitRegistry")
	}
	if NewWatcherMetrics() != nil {
		t.Error("NewWatcherMetrics should return nil before InitRegistry")
	}
}
