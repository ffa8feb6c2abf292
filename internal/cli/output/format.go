// Package output renders nestfsctl command results as tables, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format selects how a command renders its result.
type Format string

const (
	// FormatTable renders a human-readable table.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

var formatNames = map[string]Format{
	"":      FormatTable,
	"table": FormatTable,
	"json":  FormatJSON,
	"yaml":  FormatYAML,
	"yml":   FormatYAML,
}

// ParseFormat parses a format name. The empty string means table.
func ParseFormat(s string) (Format, error) {
	f, ok := formatNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
	return f, nil
}

func (f Format) String() string {
	return string(f)
}

// ANSI colors for status lines.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// Printer writes status lines, coloring them when the terminal allows it.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a Printer. With color disabled the messages come out
// as plain text.
func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

// Success prints a message in green.
func (p *Printer) Success(msg string) {
	p.line(colorGreen, msg)
}

// Error prints a message in red.
func (p *Printer) Error(msg string) {
	p.line(colorRed, msg)
}

// Warning prints a message in yellow.
func (p *Printer) Warning(msg string) {
	p.line(colorYellow, msg)
}

func (p *Printer) line(color, msg string) {
	if !p.color {
		_, _ = fmt.Fprintln(p.out, msg)
		return
	}
	_, _ = fmt.Fprintln(p.out, color+msg+colorReset)
}
