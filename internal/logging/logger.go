package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Level orders log severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

var (
	mu     sync.Mutex
	std    = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	minLvl atomic.Int32
)

func init() {
	minLvl.Store(int32(LevelInfo))
}

// SetLevel drops messages below l.
func SetLevel(l Level) {
	minLvl.Store(int32(l))
}

// CurrentLevel returns the active threshold.
func CurrentLevel() Level {
	return Level(minLvl.Load())
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// Enabled reports whether messages at l are written.
func Enabled(l Level) bool {
	return l >= CurrentLevel()
}

func Debug(format string, args ...interface{}) { logf(LevelDebug, format, args...) }
func Info(format string, args ...interface{})  { logf(LevelInfo, format, args...) }
func Warn(format string, args ...interface{})  { logf(LevelWarn, format, args...) }
func Error(format string, args ...interface{}) { logf(LevelError, format, args...) }

func logf(l Level, format string, args ...interface{}) {
	if !Enabled(l) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	mu.Lock()
	std.Printf("[%s] %s", l, msg)
	mu.Unlock()
}
