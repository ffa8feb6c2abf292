package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so logs can be
// aggregated and queried by field.
const (
	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyOp         = "op"          // Operation name: probe, commit_hash, drive_create, etc.
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Error code string
	KeyStatus     = "status"      // HTTP status or operation status code

	// ========================================================================
	// Identity & Attributes
	// ========================================================================
	KeyNodeID = "node_id" // Entry identifier (uuid)
	KeyHash   = "hash"    // Content hash (hex digest)
	KeyHTime  = "htime"   // Modification time the hash was computed against (epoch ms)
	KeyMagic  = "magic"   // File type classification tag
	KeyMTime  = "mtime"   // Entry modification time (epoch ms)
	KeySize   = "size"    // File size in bytes

	// ========================================================================
	// Tree & Filesystem
	// ========================================================================
	KeyPath     = "path"      // Full filesystem path
	KeyFilename = "filename"  // Entry name (basename)
	KeyKind     = "kind"      // Node kind: drive, directory, file
	KeyParentID = "parent_id" // Parent node identifier
	KeyEntries  = "entries"   // Number of directory entries processed
	KeySkipped  = "skipped"   // Number of entries skipped during a scan

	// ========================================================================
	// Drives
	// ========================================================================
	KeyDrive   = "drive"    // Drive name
	KeyDriveID = "drive_id" // Drive identifier (uuid)
	KeyAccess  = "access"   // Drive access type: private, public
	KeyRef     = "ref"      // Drive reference tag: home, library, service
	KeyOwner   = "owner"    // Drive owner user identifier

	// ========================================================================
	// Users & Clients
	// ========================================================================
	KeyUser      = "user"       // Acting user identifier
	KeyClientIP  = "client_ip"  // Client IP address
	KeyRequestID = "request_id" // API request ID

	// ========================================================================
	// Workers & Watching
	// ========================================================================
	KeyWorker     = "worker"      // Worker index
	KeyQueueDepth = "queue_depth" // Pending jobs in a worker queue
	KeyEvent      = "event"       // Filesystem event description
	KeyStore      = "store"       // Drive store backend: memory, badger
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// Op returns a slog.Attr for an operation name
func Op(name string) slog.Attr {
	return slog.String(KeyOp, name)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for an error code string
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Status returns a slog.Attr for a status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// NodeID returns a slog.Attr for an entry identifier
func NodeID(id string) slog.Attr {
	return slog.String(KeyNodeID, id)
}

// Hash returns a slog.Attr for a content hash
func Hash(h string) slog.Attr {
	return slog.String(KeyHash, h)
}

// HTime returns a slog.Attr for a hash timestamp (epoch ms)
func HTime(t int64) slog.Attr {
	return slog.Int64(KeyHTime, t)
}

// Magic returns a slog.Attr for a file type classification tag
func Magic(m string) slog.Attr {
	return slog.String(KeyMagic, m)
}

// MTime returns a slog.Attr for a modification time (epoch ms)
func MTime(t int64) slog.Attr {
	return slog.Int64(KeyMTime, t)
}

// Size returns a slog.Attr for a file size
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// Path returns a slog.Attr for a filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Filename returns a slog.Attr for an entry name
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Kind returns a slog.Attr for a node kind
func Kind(k string) slog.Attr {
	return slog.String(KeyKind, k)
}

// ParentID returns a slog.Attr for a parent node identifier
func ParentID(id string) slog.Attr {
	return slog.String(KeyParentID, id)
}

// Entries returns a slog.Attr for a directory entry count
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// Skipped returns a slog.Attr for a skipped entry count
func Skipped(n int) slog.Attr {
	return slog.Int(KeySkipped, n)
}

// Drive returns a slog.Attr for a drive name
func Drive(name string) slog.Attr {
	return slog.String(KeyDrive, name)
}

// DriveID returns a slog.Attr for a drive identifier
func DriveID(id string) slog.Attr {
	return slog.String(KeyDriveID, id)
}

// Access returns a slog.Attr for a drive access type
func Access(a string) slog.Attr {
	return slog.String(KeyAccess, a)
}

// Ref returns a slog.Attr for a drive reference tag
func Ref(r string) slog.Attr {
	return slog.String(KeyRef, r)
}

// Owner returns a slog.Attr for a drive owner
func Owner(o string) slog.Attr {
	return slog.String(KeyOwner, o)
}

// User returns a slog.Attr for an acting user identifier
func User(u string) slog.Attr {
	return slog.String(KeyUser, u)
}

// ClientIP returns a slog.Attr for a client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// RequestID returns a slog.Attr for an API request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Worker returns a slog.Attr for a worker index
func Worker(n int) slog.Attr {
	return slog.Int(KeyWorker, n)
}

// QueueDepth returns a slog.Attr for pending jobs in a worker queue
func QueueDepth(n int) slog.Attr {
	return slog.Int(KeyQueueDepth, n)
}

// Event returns a slog.Attr for a filesystem event description
func Event(e string) slog.Attr {
	return slog.String(KeyEvent, e)
}

// Store returns a slog.Attr for a drive store backend name
func Store(name string) slog.Attr {
	return slog.String(KeyStore, name)
}
