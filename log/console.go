package log

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type consoleLogger struct {
	mu  sync.Mutex
	out io.Writer
	min Severity
}

// NewConsoleLogger writes one line per entry to out, dropping entries below min.
func NewConsoleLogger(out io.Writer, min Severity) Log {
	return &consoleLogger{out: out, min: min}
}

func (cl *consoleLogger) Close() error {
	return nil
}

func (cl *consoleLogger) Log(l Labeler, message string, severity Severity) {
	if severity < cl.min {
		return
	}

	line := fmt.Sprintf("%s [%s] %s%s\n", timestamp(), tag(severity), message, formatLabels(l))

	cl.mu.Lock()
	defer cl.mu.Unlock()
	_, _ = io.WriteString(cl.out, line)
}

func (cl *consoleLogger) Debugf(l Labeler, format string, args ...any) {
	cl.Log(l, fmt.Sprintf(format, args...), Debug)
}

func (cl *consoleLogger) Infof(l Labeler, format string, args ...any) {
	cl.Log(l, fmt.Sprintf(format, args...), Info)
}

func (cl *consoleLogger) Noticef(l Labeler, format string, args ...any) {
	cl.Log(l, fmt.Sprintf(format, args...), Notice)
}

func (cl *consoleLogger) Warningf(l Labeler, format string, args ...any) {
	cl.Log(l, fmt.Sprintf(format, args...), Warning)
}

func (cl *consoleLogger) Errorf(l Labeler, format string, args ...any) {
	cl.Log(l, fmt.Sprintf(format, args...), Error)
}

func (cl *consoleLogger) Criticalf(l Labeler, format string, args ...any) {
	cl.Log(l, fmt.Sprintf(format, args...), Critical)
}

func tag(severity Severity) string {
	switch {
	case severity >= Critical:
		return "X"
	case severity >= Error:
		return "E"
	case severity >= Warning:
		return "W"
	case severity >= Notice:
		return "N"
	case severity >= Info:
		return "I"
	case severity >= Debug:
		return "D"
	default:
		return "-"
	}
}

func formatLabels(l Labeler) string {
	if l == nil {
		return ""
	}
	labels := l.Labels()
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(" {")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(labels[k])
	}
	sb.WriteString("}")
	return sb.String()
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000")
}
