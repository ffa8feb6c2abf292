package attrcache

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ============================================================================
// Persisted Record Format
// ============================================================================
//
// Every tracked entry carries a single reserved extended attribute holding a
// small JSON object:
//
//	{"uuid":"...","hash":"...","htime":1724580000123,"magic":"3;image/jpeg"}
//
// Field semantics:
//
//	uuid   Stable identity. Survives renames and content rewrites. Directories
//	       store only this field.
//	hash   Hex sha-256 digest of the file content. Valid only together with
//	       htime.
//	htime  File mtime (epoch milliseconds) at the moment the hash was
//	       computed. The hash is trusted only while the file's current mtime
//	       still equals htime exactly.
//	magic  Versioned content classification tag, "<version>;<media type>".
//	       Tags from before versioning were bare media types; they parse as
//	       version 0 and are recomputed on the next read.
//
// Records written by earlier releases may carry retired fields (ownership and
// access lists that moved to the drive registry). Those are stripped on the
// next rewrite.

const (
	// AttrName is the reserved extended attribute the cache owns. Everything
	// nestfs knows about an entry lives under this one name.
	AttrName = "user.nestfs.attr"

	// MagicVersion is the tag version stamped by the current sniffer.
	MagicVersion = 3

	// MinMagicVersion is the oldest tag version still accepted. Tags below
	// this are recomputed.
	MinMagicVersion = 2
)

// record is the decoded form of the persisted attribute.
type record struct {
	UUID  string `json:"uuid,omitempty"`
	Hash  string `json:"hash,omitempty"`
	HTime int64  `json:"htime,omitempty"`
	Magic string `json:"magic,omitempty"`
}

// parseRecord decodes raw attribute bytes field by field, so one garbled
// field does not discard the others. ok is false when the payload is not a
// JSON object at all; legacy is true when retired fields were present.
func parseRecord(raw []byte) (rec record, legacy bool, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return record{}, false, false
	}

	for key, value := range fields {
		switch key {
		case "uuid":
			_ = json.Unmarshal(value, &rec.UUID)
		case "hash":
			_ = json.Unmarshal(value, &rec.Hash)
		case "htime":
			_ = json.Unmarshal(value, &rec.HTime)
		case "magic":
			_ = json.Unmarshal(value, &rec.Magic)
		default:
			legacy = true
		}
	}

	return rec, legacy, true
}

// encode serializes the record for storage. Empty fields are omitted.
func (r record) encode() ([]byte, error) {
	return json.Marshal(r)
}

// id parses the stored uuid. ok is false for a missing or malformed value.
func (r record) id() (uuid.UUID, bool) {
	if r.UUID == "" {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(r.UUID)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}

// isDigest reports whether s is a well-formed lowercase hex sha-256 digest.
func isDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// formatMagic builds a classification tag at the current version.
func formatMagic(mediaType string) string {
	return strconv.Itoa(MagicVersion) + ";" + mediaType
}

// magicVersionOf extracts the version of a stored tag. Bare media types from
// before versioning, and anything unparseable, report version 0.
func magicVersionOf(magic string) int {
	head, _, found := strings.Cut(magic, ";")
	if !found {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// magicCurrent reports whether a stored tag can be kept as is.
func magicCurrent(magic string) bool {
	return magic != "" && magicVersionOf(magic) >= MinMagicVersion
}

// mediaTypeOf returns the media type part of a tag, handling both versioned
// and bare legacy forms.
func mediaTypeOf(magic string) string {
	head, rest, found := strings.Cut(magic, ";")
	if !found {
		return magic
	}
	if _, err := strconv.Atoi(strings.TrimSpace(head)); err != nil {
		// Bare media type with parameters, e.g. "text/plain; charset=utf-8".
		return magic
	}
	return rest
}
