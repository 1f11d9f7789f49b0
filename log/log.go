package log

import (
	"os"
	"strings"
	"sync"
)

type Severity int

const (
	Default  Severity = 0
	Debug    Severity = 100 // Debug or trace information
	Info     Severity = 200 // Routine information, such as ongoing status or performance
	Notice   Severity = 300 // Normal but significant events, such as start up, shut down, or a configuration change
	Warning  Severity = 400 // Warning events might cause problems
	Error    Severity = 500 // Error events are likely to cause problems
	Critical Severity = 600 // Critical events cause more severe problems or outages
)

type Labeler interface {
	Labels() map[string]string
}

// Labels is the plain map form of a Labeler.
type Labels map[string]string

func (l Labels) Labels() map[string]string {
	return l
}

type Log interface {
	Close() error
	Log(l Labeler, message string, severity Severity)
	Debugf(l Labeler, format string, args ...any)
	Infof(l Labeler, format string, args ...any)
	Noticef(l Labeler, format string, args ...any)
	Warningf(l Labeler, format string, args ...any)
	Errorf(l Labeler, format string, args ...any)
	Criticalf(l Labeler, format string, args ...any)
}

var (
	mu     sync.RWMutex
	logger Log = NewConsoleLogger(os.Stdout, Info)
)

// Logger returns the process logger. A console logger at Info is installed
// until Set is called.
func Logger() Log {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Set replaces the process logger and returns the previous one.
func Set(l Log) Log {
	mu.Lock()
	defer mu.Unlock()
	prev := logger
	logger = l
	return prev
}

// ParseSeverity maps a level name to a Severity, falling back to Info.
func ParseSeverity(level string) Severity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return Debug
	case "notice":
		return Notice
	case "warning", "warn":
		return Warning
	case "error":
		return Error
	case "critical":
		return Critical
	default:
		return Info
	}
}
