// Package logging provides a small opt-in logger shared by the detector,
// diff cache and multi-server orchestration packages.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/techjoec/driftbuster/internal/ui"
)

// Logger is a tiny sink used across the engine. When Writer is nil, logging
// is disabled and every method is a no-op — callers never need to guard a
// nil *Logger before calling it.
//
// Output format:
//
//	<ColoredPrefix> subject=<subject> <formattedMessage>\n
//
// where <subject> is trimmed and defaults to "(none)". Subject is usually a
// host_id or a relative path; it is left generic because the same logger is
// shared by per-host workers and single-root scans.
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitSubject controls whether the subject field is written at all.
	OmitSubject bool
}

// SetWriter assigns the logger's output sink.
func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

// Enabled reports whether the logger currently writes anywhere.
func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

// Logf writes one formatted line, or does nothing if the logger is disabled.
func (l *Logger) Logf(subject string, format string, args ...any) {
	if l == nil {
		return
	}
	l.logWithColor(l.PrefixColor, subject, format, args...)
}

// Warn writes a warning-colored line regardless of the logger's configured
// PrefixColor. Intended for the error-callback paths in spec §7 (per-file
// I/O errors, decode failures, cache misses, degraded plugins).
func (l *Logger) Warn(subject string, format string, args ...any) {
	l.logWithColor(ui.FgYellow, subject, format, args...)
}

func (l *Logger) logWithColor(color string, subject string, format string, args ...any) {
	if l == nil || l.Writer == nil {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if color != "" {
		prefix = ui.Color(prefix, color)
	}
	msg := fmt.Sprintf(format, args...)
	if l.OmitSubject {
		fmt.Fprintf(l.Writer, "%s %s\n", prefix, msg)
		return
	}

	s := strings.TrimSpace(subject)
	if s == "" {
		s = "(none)"
	}
	fmt.Fprintf(l.Writer, "%s subject=%s %s\n", prefix, s, msg)
}
