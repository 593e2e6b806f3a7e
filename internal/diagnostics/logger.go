package diagnostics

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Level mirrors vudo_log's level enum (§4.6 primitive #3): out-of-range
// values default to Info, exactly as the host primitive must.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func NormalizeLevel(raw int32) Level {
	switch raw {
	case int32(LevelDebug), int32(LevelInfo), int32(LevelWarn), int32(LevelError):
		return Level(raw)
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

var levelColor = map[Level]func(a ...interface{}) string{
	LevelDebug: color.New(color.FgHiBlack).SprintFunc(),
	LevelInfo:  color.New(color.FgCyan).SprintFunc(),
	LevelWarn:  color.New(color.FgYellow, color.Bold).SprintFunc(),
	LevelError: color.New(color.FgRed, color.Bold).SprintFunc(),
}

// Logger is the host's leveled sink. Every host primitive that can fail
// writes through this, never silently drops a failure mode.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	min Level
}

// NewLogger creates a Logger writing to out (os.Stderr if nil) at min level.
func NewLogger(out io.Writer, min Level) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{out: out, min: min}
}

func (lg *Logger) Log(level Level, format string, args ...interface{}) {
	if level < lg.min {
		return
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	tag := levelColor[level](fmt.Sprintf("[%s]", level))
	fmt.Fprintf(lg.out, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

func (lg *Logger) Debug(format string, args ...interface{}) { lg.Log(LevelDebug, format, args...) }
func (lg *Logger) Info(format string, args ...interface{})  { lg.Log(LevelInfo, format, args...) }
func (lg *Logger) Warn(format string, args ...interface{})  { lg.Log(LevelWarn, format, args...) }
func (lg *Logger) Error(format string, args ...interface{}) { lg.Log(LevelError, format, args...) }
