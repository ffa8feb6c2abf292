package cmdutil

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/marmos91/nestfs/internal/cli/output"
)

// setOutput points the global output flag at format for one test.
func setOutput(t *testing.T, format string) {
	t.Helper()
	prev := Flags.Output
	Flags.Output = format
	t.Cleanup(func() { Flags.Output = prev })
}

type fakeTable struct {
	headers []string
	rows    [][]string
}

func (f fakeTable) Headers() []string { return f.headers }
func (f fakeTable) Rows() [][]string  { return f.rows }

var driveTable = fakeTable{
	headers: []string{"NAME"},
	rows:    [][]string{{"projects"}, {"media"}},
}

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"alice", []string{"alice"}},
		{"alice,bob,carol", []string{"alice", "bob", "carol"}},
		{"alice, bob , carol", []string{"alice", "bob", "carol"}},
		{"alice,,bob,", []string{"alice", "bob"}},
		{"alice, , bob", []string{"alice", "bob"}},
	}
	for _, tt := range tests {
		if got := ParseCommaSeparatedList(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseCommaSeparatedList(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBoolToYesNo(t *testing.T) {
	if got := BoolToYesNo(true); got != "yes" {
		t.Errorf("BoolToYesNo(true) = %q, want %q", got, "yes")
	}
	if got := BoolToYesNo(false); got != "no" {
		t.Errorf("BoolToYesNo(false) = %q, want %q", got, "no")
	}
}

func TestEmptyOr(t *testing.T) {
	if got := EmptyOr("", "-"); got != "-" {
		t.Errorf(`EmptyOr("", "-") = %q, want "-"`, got)
	}
	if got := EmptyOr("alice", "-"); got != "alice" {
		t.Errorf(`EmptyOr("alice", "-") = %q, want "alice"`, got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "stored", "fallback"); got != "stored" {
		t.Errorf("firstNonEmpty() = %q, want %q", got, "stored")
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestPrintOutputJSON(t *testing.T) {
	setOutput(t, "json")

	var buf bytes.Buffer
	if err := PrintOutput(&buf, []string{"projects", "media"}, false, "No drives found.", driveTable); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	if !strings.Contains(buf.String(), "projects") || !strings.Contains(buf.String(), "media") {
		t.Errorf("PrintOutput() = %q, missing drive names", buf.String())
	}
}

func TestPrintOutputYAML(t *testing.T) {
	setOutput(t, "yaml")

	var buf bytes.Buffer
	if err := PrintOutput(&buf, []string{"projects", "media"}, false, "No drives found.", driveTable); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	if want := "- projects\n- media\n"; buf.String() != want {
		t.Errorf("PrintOutput() = %q, want %q", buf.String(), want)
	}
}

func TestPrintOutputTableEmpty(t *testing.T) {
	setOutput(t, "table")

	var buf bytes.Buffer
	if err := PrintOutput(&buf, []string{}, true, "No drives found.", fakeTable{headers: []string{"NAME"}}); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	if want := "No drives found.\n"; buf.String() != want {
		t.Errorf("PrintOutput() = %q, want %q", buf.String(), want)
	}
}

func TestPrintOutputTable(t *testing.T) {
	setOutput(t, "table")

	var buf bytes.Buffer
	if err := PrintOutput(&buf, []string{"projects", "media"}, false, "No drives found.", driveTable); err != nil {
		t.Fatalf("PrintOutput() error = %v", err)
	}
	if !strings.Contains(buf.String(), "NAME") || !strings.Contains(buf.String(), "projects") {
		t.Errorf("PrintOutput() = %q, missing table content", buf.String())
	}
}

func TestPrintResourceTable(t *testing.T) {
	setOutput(t, "table")

	var buf bytes.Buffer
	pairs := [][2]string{{"Name", "projects"}, {"Owner", "alice"}}
	if err := PrintResource(&buf, map[string]string{"name": "projects"}, pairs); err != nil {
		t.Fatalf("PrintResource() error = %v", err)
	}
	if !strings.Contains(buf.String(), "projects") || !strings.Contains(buf.String(), "alice") {
		t.Errorf("PrintResource() = %q, missing pairs", buf.String())
	}
}

func TestPrintResourceWithSuccessJSON(t *testing.T) {
	setOutput(t, "json")

	var buf bytes.Buffer
	if err := PrintResourceWithSuccess(&buf, map[string]string{"name": "projects"}, "created"); err != nil {
		t.Fatalf("PrintResourceWithSuccess() error = %v", err)
	}
	// JSON output carries the resource, not the success message.
	if !strings.Contains(buf.String(), "projects") || strings.Contains(buf.String(), "created") {
		t.Errorf("PrintResourceWithSuccess() = %q, want resource only", buf.String())
	}
}

func TestGetOutputFormatParsed(t *testing.T) {
	tests := []struct {
		flag    string
		want    output.Format
		wantErr bool
	}{
		{"table", output.FormatTable, false},
		{"json", output.FormatJSON, false},
		{"yaml", output.FormatYAML, false},
		{"invalid", output.FormatTable, true},
	}
	for _, tt := range tests {
		setOutput(t, tt.flag)
		got, err := GetOutputFormatParsed()
		if (err != nil) != tt.wantErr {
			t.Errorf("GetOutputFormatParsed(%q) error = %v, wantErr %v", tt.flag, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("GetOutputFormatParsed(%q) = %v, want %v", tt.flag, got, tt.want)
		}
	}
}

func TestIsColorDisabled(t *testing.T) {
	prev := Flags.NoColor
	t.Cleanup(func() { Flags.NoColor = prev })

	Flags.NoColor = true
	if !IsColorDisabled() {
		t.Error("IsColorDisabled() = false, want true")
	}
	Flags.NoColor = false
	if IsColorDisabled() {
		t.Error("IsColorDisabled() = true, want false")
	}
}
