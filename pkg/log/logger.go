// Package log provides the structured logger used across stockroom. The
// Logger interface is backed by zap in production and by TestLogger in tests.
package log

import (
	"context"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Fields is a map of field names to values.
type Fields map[string]interface{}

// Context keys for propagating logging context
const (
	RequestIDKey = "request_id"
	ComponentKey = "component"
	OperationKey = "operation"
)

// contextKey keeps context values set by this package from colliding with
// other packages using the same strings.
type contextKey string

// Logger defines the core logging interface for stockroom components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Fatalf(msg string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	// With adds multiple fields to the logger
	With(fields ...Field) Logger

	// WithContext adds request context to the Logger
	WithContext(ctx context.Context) Logger

	// WithComponent tags logs with a component name
	WithComponent(component string) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// ContextExtractor extracts logging context from a context.Context.
func ContextExtractor(ctx context.Context) Fields {
	fields := Fields{}
	if ctx == nil {
		return fields
	}
	for _, key := range []string{RequestIDKey, ComponentKey, OperationKey} {
		if v := ctx.Value(contextKey(key)); v != nil {
			fields[key] = v
		}
	}
	return fields
}

// ContextInjector injects the standard logging keys into a context.Context.
// Keys other than request_id, component and operation are ignored.
func ContextInjector(ctx context.Context, fields Fields) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	for k, v := range fields {
		ctx = context.WithValue(ctx, contextKey(k), v)
	}
	return ctx
}

// WithRequestID stores a request id for ContextExtractor.
func WithRequestID(ctx context.Context, id string) context.Context {
	return ContextInjector(ctx, Fields{RequestIDKey: id})
}

var defaultLogger Logger

func init() {
	defaultLogger = NewLogger(WithLevel(InfoLevel))
}

// SetDefaultLogger sets the global default logger.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the global default logger.
func GetDefaultLogger() Logger {
	return defaultLogger
}

// Error logs through the default logger.
func Error(msg string, fields ...Field) {
	defaultLogger.Error(msg, fields...)
}
