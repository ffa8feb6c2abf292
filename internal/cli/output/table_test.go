package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type driveRows struct{}

func (driveRows) Headers() []string { return []string{"name", "path", "access"} }

func (driveRows) Rows() [][]string {
	return [][]string{
		{"media", "/srv/media", "public"},
		{"home-alice", "/home/alice", "private"},
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, driveRows{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	// Uppercased headers, then one line per row, no border characters.
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "ACCESS")
	assert.Contains(t, lines[1], "media")
	assert.Contains(t, lines[2], "home-alice")
	assert.NotContains(t, buf.String(), "+--")
	assert.NotContains(t, buf.String(), "|")
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{
		{"Name", "media"},
		{"Access", "public"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "media")
	assert.Contains(t, out, "Access")
	// Keys keep their original case in detail views.
	assert.NotContains(t, out, "NAME")
}
