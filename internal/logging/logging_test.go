package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_EnabledAndSetWriter(t *testing.T) {
	var l Logger
	if l.Enabled() {
		t.Fatalf("expected disabled when Writer is nil")
	}

	var buf bytes.Buffer
	l.SetWriter(&buf)
	if !l.Enabled() {
		t.Fatalf("expected enabled after setting Writer")
	}
}

func TestLogger_Logf_WritesPrefixSubjectAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:"}
	l.Logf("  host-1  ", "msg %d", 1)

	out := buf.String()
	if !strings.Contains(out, "X:") {
		t.Fatalf("expected prefix, got %q", out)
	}
	if !strings.Contains(out, "subject=host-1") {
		t.Fatalf("expected trimmed subject, got %q", out)
	}
	if !strings.Contains(out, "msg 1") {
		t.Fatalf("expected formatted message, got %q", out)
	}
}

func TestLogger_Logf_EmptySubject_UsesNone(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:"}
	l.Logf("   ", "x")

	out := buf.String()
	if !strings.Contains(out, "subject=(none)") {
		t.Fatalf("expected (none) subject, got %q", out)
	}
}

func TestLogger_Logf_DefaultPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf}
	l.Logf("host-1", "x")

	out := buf.String()
	if !strings.Contains(out, "Log:") {
		t.Fatalf("expected default prefix, got %q", out)
	}
}

func TestLogger_Logf_OmitSubject(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:", OmitSubject: true}
	l.Logf("host-1", "x")

	out := buf.String()
	if out != "X: x\n" {
		t.Fatalf("output = %q, want %q", out, "X: x\\n")
	}
}

func TestLogger_Logf_NilReceiver_NoPanic(t *testing.T) {
	var l *Logger
	l.Logf("host-1", "x")
}

func TestLogger_Warn_WritesEvenWithoutPrefixColor(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "Scan:"}
	l.Warn("a/b.json", "permission denied")

	out := buf.String()
	if !strings.Contains(out, "permission denied") {
		t.Fatalf("expected message, got %q", out)
	}
	if !strings.Contains(out, "subject=a/b.json") {
		t.Fatalf("expected subject, got %q", out)
	}
}
