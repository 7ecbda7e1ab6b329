package sqlforge

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity of a diagnostic log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
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

// Logger is the pluggable logging seam for build-time diagnostics: template
// parsing, validation, cache hits/misses, plan emission. fields is optional
// (can be nil).
type Logger interface {
	Log(level LogLevel, msg string, fields map[string]interface{})
}

// zapLogger is the default Logger, backed by a zap.Logger.
type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Log(level LogLevel, msg string, fields map[string]interface{}) {
	zf := mapToZapFields(fields)
	switch level {
	case LevelDebug:
		l.z.Debug(msg, zf...)
	case LevelInfo:
		l.z.Info(msg, zf...)
	case LevelWarn:
		l.z.Warn(msg, zf...)
	case LevelError:
		l.z.Error(msg, zf...)
	}
}

func (l *zapLogger) Sync() error {
	return l.z.Sync()
}

// NewZapLogger wraps an existing *zap.Logger as a Logger.
func NewZapLogger(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

// mapToZapFields converts a field map to zap.Field values, printing a few
// priority keys first and the rest in alphabetical order for stable output.
func mapToZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, len(fields))
	priorityKeys := []string{"dialect", "method", "entity", "template", "diagnostic_id", "error"}
	seen := make(map[string]bool, len(fields))

	for _, k := range priorityKeys {
		if v, ok := fields[k]; ok {
			out = append(out, zap.Any(k, v))
			seen[k] = true
		}
	}

	rest := make([]string, 0, len(fields)-len(seen))
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

var (
	currentLogger Logger = newDefaultLogger(false)
	debug         bool
	customLogger  bool
)

func newDefaultLogger(debugMode bool) Logger {
	cfg := zap.NewProductionConfig()
	if debugMode {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &zapLogger{z: z}
}

// SetLogger replaces the package-level logger.
func SetLogger(l Logger) {
	currentLogger = l
	customLogger = true
}

// SetDebugMode toggles debug-level diagnostics. When the caller has not
// installed a custom Logger, the default logger is rebuilt at development
// verbosity.
func SetDebugMode(enabled bool) {
	debug = enabled
	if !customLogger {
		currentLogger = newDefaultLogger(enabled)
	}
}

// IsDebugEnabled returns true if debug mode is enabled.
func IsDebugEnabled() bool {
	return debug
}

// LogInfo logs an info message.
func LogInfo(msg string, fields ...map[string]interface{}) {
	currentLogger.Log(LevelInfo, msg, firstField(fields))
}

// LogWarn logs a warning message.
func LogWarn(msg string, fields ...map[string]interface{}) {
	currentLogger.Log(LevelWarn, msg, firstField(fields))
}

// LogError logs an error message.
func LogError(msg string, fields ...map[string]interface{}) {
	currentLogger.Log(LevelError, msg, firstField(fields))
}

// LogDebug logs a debug message, a no-op unless debug mode is enabled.
func LogDebug(msg string, fields ...map[string]interface{}) {
	if debug {
		currentLogger.Log(LevelDebug, msg, firstField(fields))
	}
}

func firstField(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Sync flushes any buffered log entries. Safe to call even when the
// installed Logger does not support syncing.
func Sync() {
	if s, ok := currentLogger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

// cleanTemplate collapses runs of whitespace, used when logging a template
// body so multi-line templates stay on one log line.
func cleanTemplate(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
