package observability

import (
	"io"
	"strings"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"
)

// Logger is the structured logger shared by the migration stages.
// Templates name their properties, as in "Added source {Path}".
type Logger interface {
	Verbose(messageTemplate string, args ...any)
	Debug(messageTemplate string, args ...any)
	Info(messageTemplate string, args ...any)
	Warn(messageTemplate string, args ...any)
	Error(messageTemplate string, args ...any)

	// ForContext returns a child logger that stamps key on every event.
	ForContext(key string, value any) Logger
}

// LogLevel is the minimum severity a logger emits.
type LogLevel int

const (
	VerboseLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var levelNames = map[LogLevel]string{
	VerboseLevel: "verbose",
	DebugLevel:   "debug",
	InfoLevel:    "info",
	WarnLevel:    "warn",
	ErrorLevel:   "error",
	FatalLevel:   "fatal",
}

// ParseLogLevel maps a log_level setting to a LogLevel. "trace" and
// "warning" are accepted as aliases; anything unknown is InfoLevel.
func ParseLogLevel(name string) LogLevel {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "trace":
		return VerboseLevel
	case "warning":
		return WarnLevel
	}
	for level, n := range levelNames {
		if n == name {
			return level
		}
	}
	return InfoLevel
}

func (l LogLevel) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return levelNames[InfoLevel]
}

func (l LogLevel) option() mtlog.Option {
	switch l {
	case VerboseLevel:
		return mtlog.Verbose()
	case DebugLevel:
		return mtlog.Debug()
	case WarnLevel:
		return mtlog.Warning()
	case ErrorLevel:
		return mtlog.Error()
	case FatalLevel:
		return mtlog.WithMinimumLevel(core.FatalLevel)
	default:
		return mtlog.Information()
	}
}

// mtlogLogger adapts an mtlog logger. The level methods are promoted from
// the embedded logger.
type mtlogLogger struct {
	core.Logger
}

func (l mtlogLogger) ForContext(key string, value any) Logger {
	return mtlogLogger{l.Logger.ForContext(key, value)}
}

// NewLogger returns a console logger writing events at or above level to w.
func NewLogger(w io.Writer, level LogLevel) Logger {
	return mtlogLogger{mtlog.New(
		mtlog.WithSink(sinks.NewConsoleSinkWithWriter(w)),
		mtlog.WithTimestamp(),
		level.option(),
	)}
}

type nullLogger struct{}

// NewNullLogger returns a logger that discards everything.
func NewNullLogger() Logger { return nullLogger{} }

func (nullLogger) Verbose(string, ...any)          {}
func (nullLogger) Debug(string, ...any)            {}
func (nullLogger) Info(string, ...any)             {}
func (nullLogger) Warn(string, ...any)             {}
func (nullLogger) Error(string, ...any)            {}
func (n nullLogger) ForContext(string, any) Logger { return n }
