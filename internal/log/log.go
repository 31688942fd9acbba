// Package log writes leveled, categorized debug entries for worksets.
//
// Nothing is written until Init or InitWriter installs a destination. Each
// entry is one line:
//
//	2026-01-02T15:04:05 [INFO] [timeouts] Scheduled name=autosave
//
// Entries are also published on a broker; NewListener feeds them to the UI.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/worksets/internal/pubsub"
)

// Level is the severity of an entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level from config. Anything unrecognised means debug.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelDebug
}

// Category names the subsystem an entry came from.
type Category string

const (
	CatRegistry   Category = "registry"
	CatSignals    Category = "signals"
	CatInjections Category = "injections"
	CatTimeouts   Category = "timeouts"
	CatLoop       Category = "loop"
	CatSession    Category = "session"
	CatConfig     Category = "config"
	CatWatcher    Category = "watcher"
	CatUI         Category = "ui"
	CatTracing    Category = "tracing"
)

// EnvDebug turns on file logging. Its value is a path, or "1" for the
// default path.
const EnvDebug = "WORKSETS_DEBUG"

const timeLayout = "2006-01-02T15:04:05"

type sink struct {
	mu        sync.Mutex
	out       io.Writer
	closer    io.Closer
	muted     bool
	threshold Level
	entries   *pubsub.Broker[string]
}

func newSink(out io.Writer, closer io.Closer) *sink {
	return &sink{out: out, closer: closer, entries: pubsub.NewBroker[string]()}
}

var (
	current  *sink
	initOnce sync.Once
)

// Init appends entries to the file at path. Only the first call in a process
// opens a file; later calls fail. The returned func closes the file.
func Init(path string) (func(), error) {
	var err error
	initOnce.Do(func() {
		var f *os.File
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: debug log path comes from the user
		if err == nil {
			current = newSink(f, f)
		}
	})
	if err != nil {
		return nil, err
	}
	s := current
	if s == nil || s.closer == nil {
		return nil, errors.New("log: already initialized")
	}
	return func() { _ = s.closer.Close() }, nil
}

// InitWriter sends entries to w, replacing any earlier destination.
func InitWriter(w io.Writer) {
	current = newSink(w, nil)
}

func update(fn func(*sink)) {
	s := current
	if s == nil {
		return
	}
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

// SetEnabled mutes or unmutes output.
func SetEnabled(enabled bool) {
	update(func(s *sink) { s.muted = !enabled })
}

// SetMinLevel drops entries below level.
func SetMinLevel(level Level) {
	update(func(s *sink) { s.threshold = level })
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }
func Info(cat Category, msg string, fields ...any)  { write(LevelInfo, cat, msg, fields) }
func Warn(cat Category, msg string, fields ...any)  { write(LevelWarn, cat, msg, fields) }
func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr is Error with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	write(LevelError, cat, msg, append(fields, "error", err))
}

func format(level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", time.Now().Format(timeLayout), level, cat, msg)
	for len(fields) >= 2 {
		fmt.Fprintf(&b, " %v=%v", fields[0], fields[1])
		fields = fields[2:]
	}
	if len(fields) == 1 {
		fmt.Fprintf(&b, " %v=<missing>", fields[0])
	}
	b.WriteByte('\n')
	return b.String()
}

func write(level Level, cat Category, msg string, fields []any) {
	s := current
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.muted || level < s.threshold {
		s.mu.Unlock()
		return
	}
	entry := format(level, cat, msg, fields)
	if s.out != nil {
		_, _ = io.WriteString(s.out, entry)
	}
	s.mu.Unlock()

	// Published unlocked: a subscriber may itself log.
	s.entries.Publish(pubsub.CreatedEvent, entry)
}

// LogEvent carries one formatted entry.
type LogEvent = pubsub.Event[string]

// Listener delivers entries to a Bubble Tea program.
type Listener = pubsub.ContinuousListener[string]

// NewListener subscribes to entries written after the call until ctx is done.
// It returns nil when no destination is installed.
func NewListener(ctx context.Context) *Listener {
	s := current
	if s == nil {
		return nil
	}
	return pubsub.NewContinuousListener(ctx, s.entries)
}
