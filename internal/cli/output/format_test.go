package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"TABLE", FormatTable},
		{"json", FormatJSON},
		{" json ", FormatJSON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		assert.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	for _, bad := range []string{"xml", "csv", "tables"} {
		_, err := ParseFormat(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestPrinterColors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Success("created")
	p.Error("failed")
	p.Warning("careful")

	out := buf.String()
	assert.Contains(t, out, colorGreen+"created"+colorReset)
	assert.Contains(t, out, colorRed+"failed"+colorReset)
	assert.Contains(t, out, colorYellow+"careful"+colorReset)
}

func TestPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Success("created")
	p.Error("failed")

	assert.Equal(t, "created\nfailed\n", buf.String())
}
