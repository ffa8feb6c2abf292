package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys. Keys follow OpenTelemetry semantic conventions
// where one exists; domain keys use the "drive.", "node.", and "fs."
// prefixes.
const (
	// ========================================================================
	// Drive attributes
	// ========================================================================
	AttrDriveName   = "drive.name"
	AttrDriveID     = "drive.id"
	AttrDriveAccess = "drive.access"
	AttrDriveOwner  = "drive.owner"

	// ========================================================================
	// Node attributes
	// ========================================================================
	AttrNodeID   = "node.id"
	AttrNodeKind = "node.kind"

	// ========================================================================
	// Entry attributes
	// ========================================================================
	AttrPath      = "fs.path"
	AttrEntryType = "fs.entry_type"
	AttrHash      = "fs.hash"
	AttrSize      = "fs.size"
	AttrMagic     = "fs.magic"

	// ========================================================================
	// Probe and job attributes
	// ========================================================================
	AttrEntries = "probe.entries"
	AttrSkipped = "probe.skipped"
	AttrOutcome = "job.outcome"

	// ========================================================================
	// User and store attributes
	// ========================================================================
	AttrUsername  = "user.name"
	AttrStoreName = "store.name"

	// ========================================================================
	// HTTP attributes (control API)
	// ========================================================================
	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.response.status_code"
)

// Span names.
// Format: <component>.<operation>
const (
	// Control API request root span
	SpanAPIRequest = "api.request"

	// Registry operations
	SpanRegistryCreate  = "registry.create"
	SpanRegistryUpdate  = "registry.update"
	SpanRegistryDelete  = "registry.delete"
	SpanRegistryRestore = "registry.restore"

	// Tree operations
	SpanTreeProbe       = "tree.probe"
	SpanTreeResolve     = "tree.resolve"
	SpanTreePermissions = "tree.permissions"

	// Attribute cache operations
	SpanAttrRead    = "attrcache.read"
	SpanAttrCommit  = "attrcache.commit_hash"
	SpanAttrReplace = "attrcache.finalize_replace"

	// Background digest job
	SpanHashJob = "hasher.job"
)

// DriveName returns an attribute for a drive name.
func DriveName(name string) attribute.KeyValue {
	return attribute.String(AttrDriveName, name)
}

// DriveID returns an attribute for a drive identifier.
func DriveID(id string) attribute.KeyValue {
	return attribute.String(AttrDriveID, id)
}

// DriveAccess returns an attribute for a drive access mode.
func DriveAccess(access string) attribute.KeyValue {
	return attribute.String(AttrDriveAccess, access)
}

// DriveOwner returns an attribute for a drive owner.
func DriveOwner(owner string) attribute.KeyValue {
	return attribute.String(AttrDriveOwner, owner)
}

// NodeID returns an attribute for a node identifier.
func NodeID(id string) attribute.KeyValue {
	return attribute.String(AttrNodeID, id)
}

// NodeKind returns an attribute for a node kind.
func NodeKind(kind string) attribute.KeyValue {
	return attribute.String(AttrNodeKind, kind)
}

// Path returns an attribute for a filesystem path.
func Path(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// EntryType returns an attribute for an entry type.
func EntryType(t string) attribute.KeyValue {
	return attribute.String(AttrEntryType, t)
}

// Hash returns an attribute for a content digest.
func Hash(hash string) attribute.KeyValue {
	return attribute.String(AttrHash, hash)
}

// Size returns an attribute for an entry size.
func Size(size int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, size)
}

// Magic returns an attribute for a sniffed content type.
func Magic(magic string) attribute.KeyValue {
	return attribute.String(AttrMagic, magic)
}

// Entries returns an attribute for reconciled entry counts.
func Entries(n int) attribute.KeyValue {
	return attribute.Int(AttrEntries, n)
}

// Skipped returns an attribute for skipped entry counts.
func Skipped(n int) attribute.KeyValue {
	return attribute.Int(AttrSkipped, n)
}

// Outcome returns an attribute for a job outcome.
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// Username returns an attribute for a user name.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// StoreName returns an attribute for a store backend name.
func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

// HTTPMethod returns an attribute for an HTTP request method.
func HTTPMethod(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// HTTPRoute returns an attribute for an HTTP route pattern.
func HTTPRoute(route string) attribute.KeyValue {
	return attribute.String(AttrHTTPRoute, route)
}

// HTTPStatus returns an attribute for an HTTP response status code.
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// StartAPISpan starts a span for a control API request.
func StartAPISpan(ctx context.Context, method, route string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		HTTPMethod(method),
		HTTPRoute(route),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanAPIRequest, trace.WithAttributes(allAttrs...))
}

// StartRegistrySpan starts a span for a drive registry operation.
func StartRegistrySpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// StartProbeSpan starts a span for a tree probe.
func StartProbeSpan(ctx context.Context, nodeID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		NodeID(nodeID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanTreeProbe, trace.WithAttributes(allAttrs...))
}

// StartHashSpan starts a span for a background digest job.
func StartHashSpan(ctx context.Context, nodeID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		NodeID(nodeID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanHashJob, trace.WithAttributes(allAttrs...))
}
