package attrcache

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// EntryType classifies a tracked filesystem entry.
type EntryType int

const (
	// EntryDirectory is a directory.
	EntryDirectory EntryType = iota + 1

	// EntryFile is a regular file.
	EntryFile
)

// String returns the lowercase name of the entry type.
func (t EntryType) String() string {
	switch t {
	case EntryDirectory:
		return "directory"
	case EntryFile:
		return "file"
	default:
		return fmt.Sprintf("entrytype(%d)", int(t))
	}
}

// MarshalJSON encodes the entry type as its string name.
func (t EntryType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an entry type from its string name.
func (t *EntryType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "directory":
		*t = EntryDirectory
	case "file":
		*t = EntryFile
	default:
		return fmt.Errorf("unknown entry type %q", s)
	}
	return nil
}

// Summary is the caller-facing view of a tracked entry after a read or a
// write-through operation. Hash and Magic are set for files only; Hash is
// present only when a stored digest is still valid against the file's
// current mtime.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Type  EntryType `json:"type"`
	Name  string    `json:"name"`
	MTime int64     `json:"mtime"`
	Size  int64     `json:"size,omitempty"`
	Hash  string    `json:"hash,omitempty"`
	Magic string    `json:"magic,omitempty"`
}

// IsDir reports whether the summary describes a directory.
func (s *Summary) IsDir() bool {
	return s.Type == EntryDirectory
}

// entryStat is the subset of stat information the cache operates on.
type entryStat struct {
	name    string
	size    int64
	mtimeMs int64
	dir     bool
}

func summaryFor(st entryStat, rec record) *Summary {
	id, _ := rec.id()
	s := &Summary{
		ID:    id,
		Name:  st.name,
		MTime: st.mtimeMs,
	}
	if st.dir {
		s.Type = EntryDirectory
		return s
	}
	s.Type = EntryFile
	s.Size = st.size
	s.Hash = rec.Hash
	s.Magic = rec.Magic
	return s
}

func baseName(path string) string {
	return filepath.Base(filepath.Clean(path))
}
