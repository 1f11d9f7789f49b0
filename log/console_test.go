package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleLoggerFiltersAndLabels(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, Info)

	l.Debugf(nil, "hidden %d", 1)
	l.Warningf(Labels{"note_id": "7", "trace_id": "abc"}, "patch skipped for %s", "note")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry should be filtered, got %q", out)
	}
	if !strings.Contains(out, "[W] patch skipped for note {note_id=7 trace_id=abc}") {
		t.Errorf("unexpected line %q", out)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"debug":   Debug,
		"WARN":    Warning,
		"error":   Error,
		"":        Info,
		"verbose": Info,
	}
	for in, want := range tests {
		if got := ParseSeverity(in); got != want {
			t.Errorf("ParseSeverity(%q) = %d, want %d", in, got, want)
		}
	}
}
