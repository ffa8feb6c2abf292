// Package attrcache persists entry identity and content hashes in filesystem
// extended attributes.
//
// The cache owns one reserved attribute name (AttrName) per entry. Reads are
// self-healing: a missing, corrupt, or partially invalid record is repaired
// in place and written back before the summary is returned, so callers always
// observe a well-formed record. Identity is never preserved through
// corruption; a record whose uuid cannot be parsed gets a fresh one.
//
// Hashes are expensive, so they are computed outside the cache and committed
// through a check-then-act protocol: the caller captures (uuid, mtime) before
// hashing, hashes, then calls CommitHash with the captured values. The commit
// rejects the digest if the entry was replaced (IdentityMismatch) or modified
// (StaleTimestamp) in the meantime. A write that lands between the final
// check and the attribute write is not detected; with millisecond timestamps
// the next read notices the mtime change and drops the stored hash.
package attrcache

import (
	stderrors "errors"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/xattr"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/bufpool"
	nestfserrors "github.com/marmos91/nestfs/pkg/errors"
)

// Repair reasons reported to Metrics.RecordRepair.
const (
	repairInit      = "init"
	repairLegacy    = "legacy_fields"
	repairIdentity  = "identity"
	repairHashPair  = "hash_pair"
	repairStaleHash = "stale_hash"
	repairMagic     = "magic"
	repairDirExtras = "dir_extras"
)

// Commit outcomes reported to Metrics.RecordHashCommit.
const (
	commitAccepted = "committed"
	commitMismatch = "mismatch"
	commitStale    = "stale"
)

// Metrics records attribute cache activity. Implementations must be safe for
// concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// RecordRead counts a successful Read, tagged with the entry type and
	// whether the record needed repair.
	RecordRead(entryType string, repaired bool)

	// RecordRepair counts a single repair action by reason.
	RecordRepair(reason string)

	// RecordHashCommit counts a CommitHash attempt by outcome.
	RecordHashCommit(outcome string)

	// RecordSniff counts a content sniff.
	RecordSniff()
}

// Cache reads and writes identity records stored in extended attributes.
// The zero value is not usable; construct with New. A Cache carries no state
// besides instrumentation and is safe for concurrent use.
type Cache struct {
	metrics Metrics
}

// New creates a Cache. metrics may be nil.
func New(metrics Metrics) *Cache {
	return &Cache{metrics: metrics}
}

// Read returns the summary for path, repairing the persisted record first if
// needed. Directories carry identity only; files carry identity, an optional
// hash (kept only while still valid against the current mtime), and a
// classification tag.
//
// Paths that are neither regular files nor directories fail with
// NotRegularEntry. Filesystem failures fail with IO.
func (c *Cache) Read(path string) (*Summary, error) {
	st, err := statEntry(path)
	if err != nil {
		return nil, err
	}

	raw, err := c.getRecord(path)
	if err != nil {
		return nil, err
	}

	var (
		rec     record
		repairs []string
		rebuilt bool
	)

	if raw == nil {
		repairs = append(repairs, repairInit)
		rebuilt = true
	} else {
		parsed, legacy, ok := parseRecord(raw)
		if !ok {
			repairs = append(repairs, repairInit)
			rebuilt = true
		} else {
			rec = parsed
			if legacy {
				repairs = append(repairs, repairLegacy)
			}
		}
	}

	if _, ok := rec.id(); !ok {
		rec.UUID = uuid.New().String()
		if !rebuilt {
			repairs = append(repairs, repairIdentity)
		}
	}

	if st.dir {
		if rec.Hash != "" || rec.HTime != 0 || rec.Magic != "" {
			rec.Hash, rec.HTime, rec.Magic = "", 0, ""
			repairs = append(repairs, repairDirExtras)
		}
	} else {
		switch {
		case rec.Hash == "" && rec.HTime == 0:
			// No digest stored.
		case !isDigest(rec.Hash) || rec.HTime <= 0:
			rec.Hash, rec.HTime = "", 0
			repairs = append(repairs, repairHashPair)
		case rec.HTime != st.mtimeMs:
			rec.Hash, rec.HTime = "", 0
			repairs = append(repairs, repairStaleHash)
		}

		if !magicCurrent(rec.Magic) {
			tag, err := c.sniff(path)
			if err != nil {
				return nil, err
			}
			rec.Magic = tag
			if !rebuilt {
				repairs = append(repairs, repairMagic)
			}
		}
	}

	if len(repairs) > 0 {
		if err := c.putRecord(path, rec); err != nil {
			return nil, err
		}
		for _, reason := range repairs {
			c.recordRepair(reason)
		}
		logger.Debug("attribute record repaired",
			logger.Path(path),
			"reasons", repairs,
		)
	}

	c.recordRead(st, len(repairs) > 0)
	return summaryFor(st, rec), nil
}

// PeekHash returns the stored hash summary for a file without repairing
// anything and without touching content. It returns (nil, nil) when no valid
// digest is stored: record absent or corrupt, digest malformed, or the
// stored htime no longer matching the file's current mtime.
func (c *Cache) PeekHash(path string) (*Summary, error) {
	st, err := statEntry(path)
	if err != nil {
		return nil, err
	}
	if st.dir {
		return nil, nestfserrors.NewNotRegularFileError(path)
	}

	raw, err := c.getRecord(path)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	rec, _, ok := parseRecord(raw)
	if !ok {
		return nil, nil
	}
	if _, ok := rec.id(); !ok {
		return nil, nil
	}
	if !isDigest(rec.Hash) || rec.HTime != st.mtimeMs {
		return nil, nil
	}

	return summaryFor(st, rec), nil
}

// CommitHash persists a digest computed outside the cache. id and htime must
// be the identity and mtime (epoch milliseconds) the caller captured before
// hashing. The commit fails with IdentityMismatch when the entry's identity
// changed or vanished, and with StaleTimestamp when the file was modified
// after the capture. On success the refreshed summary is returned.
func (c *Cache) CommitHash(path string, id uuid.UUID, hash string, htime int64) (*Summary, error) {
	if !isDigest(hash) {
		return nil, nestfserrors.NewInvalidArgumentError("malformed content digest")
	}
	if htime <= 0 {
		return nil, nestfserrors.NewInvalidArgumentError("htime must be positive")
	}

	st, err := statEntry(path)
	if err != nil {
		return nil, err
	}
	if st.dir {
		return nil, nestfserrors.NewNotRegularFileError(path)
	}

	raw, err := c.getRecord(path)
	if err != nil {
		return nil, err
	}

	var rec record
	ok := false
	if raw != nil {
		rec, _, ok = parseRecord(raw)
	}
	stored, hasID := rec.id()
	if !ok || !hasID || stored != id {
		c.recordCommit(commitMismatch)
		return nil, nestfserrors.NewIdentityMismatchError(path)
	}

	if st.mtimeMs != htime {
		c.recordCommit(commitStale)
		return nil, nestfserrors.NewStaleTimestampError(path)
	}

	rec.Hash = hash
	rec.HTime = htime
	if !magicCurrent(rec.Magic) {
		tag, err := c.sniff(path)
		if err != nil {
			return nil, err
		}
		rec.Magic = tag
	}

	if err := c.putRecord(path, rec); err != nil {
		return nil, err
	}

	c.recordCommit(commitAccepted)
	return summaryFor(st, rec), nil
}

// FinalizeReplace stamps stagedPath with the identity of targetPath plus a
// freshly sniffed classification tag, then renames it over targetPath in one
// step. Content replacement keeps the entry's identity this way. newHash, if
// non-empty, is recorded against the staged file's current mtime; rename
// preserves mtime, so the digest stays valid after the swap.
//
// A target that was never stamped (or does not exist yet) yields a fresh
// identity for the replacement.
func (c *Cache) FinalizeReplace(targetPath, stagedPath, newHash string) (*Summary, error) {
	if newHash != "" && !isDigest(newHash) {
		return nil, nestfserrors.NewInvalidArgumentError("malformed content digest")
	}

	st, err := statEntry(stagedPath)
	if err != nil {
		return nil, err
	}
	if st.dir {
		return nil, nestfserrors.NewNotRegularFileError(stagedPath)
	}

	id := peekIdentity(targetPath)
	if id == uuid.Nil {
		id = uuid.New()
	}

	tag, err := c.sniff(stagedPath)
	if err != nil {
		return nil, err
	}

	rec := record{UUID: id.String(), Magic: tag}
	if newHash != "" {
		rec.Hash = newHash
		rec.HTime = st.mtimeMs
	}

	if err := c.putRecord(stagedPath, rec); err != nil {
		return nil, err
	}

	if err := os.Rename(stagedPath, targetPath); err != nil {
		return nil, nestfserrors.NewIOError(targetPath, err)
	}

	logger.Debug("replacement finalized",
		logger.Path(targetPath),
		logger.NodeID(id.String()),
		logger.Hash(newHash),
	)

	st.name = baseName(targetPath)
	return summaryFor(st, rec), nil
}

// ForceInit unconditionally stamps path with an identity-only record,
// discarding whatever was stored before. A zero id generates a fresh one.
// The effective identity is returned. Used when bootstrapping entries whose
// identity is dictated from outside, such as drive roots.
func (c *Cache) ForceInit(path string, id uuid.UUID) (uuid.UUID, error) {
	if _, err := statEntry(path); err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	if err := c.putRecord(path, record{UUID: id.String()}); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ForceAttrsOptions controls ForceAttrs.
type ForceAttrsOptions struct {
	// ID is the identity to stamp. The zero value generates a fresh one.
	ID uuid.UUID

	// Hash, if non-empty, is a digest to record against the file's current
	// mtime.
	Hash string
}

// ForceAttrs unconditionally rebuilds a file's record: identity from opts,
// classification from a fresh sniff, and optionally a digest bound to the
// current mtime. Unlike CommitHash it performs no staleness or identity
// checks.
func (c *Cache) ForceAttrs(path string, opts ForceAttrsOptions) (*Summary, error) {
	if opts.Hash != "" && !isDigest(opts.Hash) {
		return nil, nestfserrors.NewInvalidArgumentError("malformed content digest")
	}

	st, err := statEntry(path)
	if err != nil {
		return nil, err
	}
	if st.dir {
		return nil, nestfserrors.NewNotRegularFileError(path)
	}

	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	tag, err := c.sniff(path)
	if err != nil {
		return nil, err
	}

	rec := record{UUID: id.String(), Magic: tag}
	if opts.Hash != "" {
		rec.Hash = opts.Hash
		rec.HTime = st.mtimeMs
	}

	if err := c.putRecord(path, rec); err != nil {
		return nil, err
	}

	return summaryFor(st, rec), nil
}

// ============================================================================
// Filesystem Access
// ============================================================================

// statEntry classifies path. Missing entries and special files (symlinks,
// sockets, devices) fail with NotRegularEntry; other stat failures with IO.
// Symlinks are not followed.
func statEntry(path string) (entryStat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entryStat{}, nestfserrors.NewNotRegularEntryError(path)
		}
		return entryStat{}, nestfserrors.NewIOError(path, err)
	}

	mode := info.Mode()
	switch {
	case mode.IsDir():
		return entryStat{
			name:    baseName(path),
			mtimeMs: info.ModTime().UnixMilli(),
			dir:     true,
		}, nil
	case mode.IsRegular():
		return entryStat{
			name:    baseName(path),
			size:    info.Size(),
			mtimeMs: info.ModTime().UnixMilli(),
		}, nil
	default:
		return entryStat{}, nestfserrors.NewNotRegularEntryError(path)
	}
}

// getRecord reads the reserved attribute. A missing attribute returns
// (nil, nil).
func (c *Cache) getRecord(path string) ([]byte, error) {
	raw, err := xattr.Get(path, AttrName)
	if err != nil {
		if stderrors.Is(err, xattr.ENOATTR) {
			return nil, nil
		}
		return nil, nestfserrors.NewIOError(path, err)
	}
	return raw, nil
}

// putRecord writes the reserved attribute.
func (c *Cache) putRecord(path string, rec record) error {
	data, err := rec.encode()
	if err != nil {
		return nestfserrors.NewIOError(path, err)
	}
	if err := xattr.Set(path, AttrName, data); err != nil {
		return nestfserrors.NewIOError(path, err)
	}
	return nil
}

// peekIdentity returns the identity stored at path, or uuid.Nil when none
// can be read. Best-effort; used when carrying identity across a replace.
func peekIdentity(path string) uuid.UUID {
	raw, err := xattr.Get(path, AttrName)
	if err != nil {
		return uuid.Nil
	}
	rec, _, ok := parseRecord(raw)
	if !ok {
		return uuid.Nil
	}
	id, ok := rec.id()
	if !ok {
		return uuid.Nil
	}
	return id
}

// sniff classifies file content and returns a versioned tag. Classification
// needs only the leading bytes, read through a pooled buffer.
func (c *Cache) sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nestfserrors.NewIOError(path, err)
	}
	defer func() { _ = f.Close() }()

	buf := bufpool.Get(bufpool.SmallSize)
	defer bufpool.Put(buf)

	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nestfserrors.NewIOError(path, err)
	}

	c.recordSniff()
	return formatMagic(mimetype.Detect(buf[:n]).String()), nil
}

// ============================================================================
// Instrumentation
// ============================================================================

func (c *Cache) recordRead(st entryStat, repaired bool) {
	if c.metrics == nil {
		return
	}
	entryType := "file"
	if st.dir {
		entryType = "directory"
	}
	c.metrics.RecordRead(entryType, repaired)
}

func (c *Cache) recordRepair(reason string) {
	if c.metrics != nil {
		c.metrics.RecordRepair(reason)
	}
}

func (c *Cache) recordCommit(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordHashCommit(outcome)
	}
}

func (c *Cache) recordSniff() {
	if c.metrics != nil {
		c.metrics.RecordSniff()
	}
}
