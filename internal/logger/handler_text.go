package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// textTimeLayout is the timestamp prefix of every text line. The logs
// command parses this layout when filtering by time, so changing it breaks
// --since and --until on existing log files.
const textTimeLayout = "2006-01-02 15:04:05"

// ANSI escapes for terminal output.
const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiGray   = "\x1b[90m"
)

// textHandler renders records as single human-readable lines:
//
//	[2026-01-02 15:04:05] [INFO] drive mounted drive=media path=/srv/media
//
// Values containing whitespace are quoted so lines stay splittable on
// spaces. All clones produced by WithAttrs and WithGroup share one mutex so
// concurrent writes never interleave.
type textHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	color bool

	attrs  []slog.Attr
	groups []string
}

func newTextHandler(w io.Writer, level slog.Leveler, color bool) *textHandler {
	return &textHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		color: color,
	}
}

// Enabled implements slog.Handler.
func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// Handle implements slog.Handler. The line is assembled in a local buffer
// and written in one call under the lock.
func (h *textHandler) Handle(_ context.Context, rec slog.Record) error {
	buf := make([]byte, 0, 256)

	buf = append(buf, '[')
	buf = rec.Time.AppendFormat(buf, textTimeLayout)
	buf = append(buf, "] "...)
	buf = h.appendLevel(buf, rec.Level)
	buf = append(buf, ' ')
	buf = append(buf, rec.Message...)

	for _, a := range h.attrs {
		buf = h.appendAttr(buf, a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs implements slog.Handler. The clone shares the writer lock.
func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

// WithGroup implements slog.Handler. Group names become dotted key prefixes.
func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}

func (h *textHandler) appendLevel(buf []byte, l slog.Level) []byte {
	var tag, color string
	switch {
	case l < slog.LevelInfo:
		tag, color = "DEBUG", ansiGray
	case l < slog.LevelWarn:
		tag, color = "INFO", ansiGreen
	case l < slog.LevelError:
		tag, color = "WARN", ansiYellow
	default:
		tag, color = "ERROR", ansiRed
	}

	buf = append(buf, '[')
	if h.color {
		buf = append(buf, color...)
		buf = append(buf, tag...)
		buf = append(buf, ansiReset...)
	} else {
		buf = append(buf, tag...)
	}
	return append(buf, ']')
}

// appendAttr renders one " key=value" pair. Group-valued attrs are
// flattened with dotted keys.
func (h *textHandler) appendAttr(buf []byte, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			if a.Key != "" {
				ga.Key = a.Key + "." + ga.Key
			}
			buf = h.appendAttr(buf, ga)
		}
		return buf
	}

	key := a.Key
	if len(h.groups) > 0 {
		key = strings.Join(h.groups, ".") + "." + key
	}

	buf = append(buf, ' ')
	if h.color {
		buf = append(buf, ansiCyan...)
		buf = append(buf, key...)
		buf = append(buf, ansiReset...)
	} else {
		buf = append(buf, key...)
	}
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t") {
			return strconv.AppendQuote(buf, s)
		}
		return append(buf, s...)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', 3, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	default:
		return fmt.Append(buf, v.Any())
	}
}
