package log

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redactedValue = "[REDACTED]"

// LoggerOption configures a logger built by NewLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	level    Level
	format   string
	writer   io.Writer
	caller   bool
	redacted []string
	sampling *SamplingConfig
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(o *loggerOptions) { o.level = level }
}

// WithFormat selects "json" or "text" output.
func WithFormat(format string) LoggerOption {
	return func(o *loggerOptions) { o.format = strings.ToLower(format) }
}

// WithWriter sets the destination. The default is stderr.
func WithWriter(w io.Writer) LoggerOption {
	return func(o *loggerOptions) { o.writer = w }
}

// WithCaller adds the calling file and line to every entry.
func WithCaller(enabled bool) LoggerOption {
	return func(o *loggerOptions) { o.caller = enabled }
}

// WithRedactedFields replaces the values of the named fields.
func WithRedactedFields(keys ...string) LoggerOption {
	return func(o *loggerOptions) { o.redacted = append(o.redacted, keys...) }
}

// WithSampling drops repeated entries after the first initial per second,
// keeping every thereafter-th one.
func WithSampling(initial, thereafter int) LoggerOption {
	return func(o *loggerOptions) {
		o.sampling = &SamplingConfig{Initial: initial, Thereafter: thereafter}
	}
}

// ZapLogger implements Logger on top of a zap core.
type ZapLogger struct {
	z        *zap.Logger
	level    zap.AtomicLevel
	redacted map[string]bool
}

// NewLogger creates a zap-backed logger.
func NewLogger(options ...LoggerOption) Logger {
	o := &loggerOptions{level: InfoLevel, format: "text", writer: os.Stderr}
	for _, option := range options {
		option(o)
	}

	atom := zap.NewAtomicLevelAt(toZapLevel(o.level))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if o.format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(o.writer), atom)
	if o.sampling != nil && o.sampling.Thereafter > 0 {
		core = zapcore.NewSamplerWithOptions(core, time.Second, o.sampling.Initial, o.sampling.Thereafter)
	}

	var zopts []zap.Option
	if o.caller {
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	redacted := make(map[string]bool, len(o.redacted))
	for _, k := range o.redacted {
		redacted[k] = true
	}

	return &ZapLogger{z: zap.New(core, zopts...), level: atom, redacted: redacted}
}

// Zap exposes the underlying zap logger.
func (l *ZapLogger) Zap() *zap.Logger {
	return l.z
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, l.convert(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, l.convert(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, l.convert(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, l.convert(fields)...) }
func (l *ZapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, l.convert(fields)...) }

func (l *ZapLogger) Debugf(msg string, args ...interface{}) { l.z.Sugar().Debugf(msg, args...) }
func (l *ZapLogger) Infof(msg string, args ...interface{})  { l.z.Sugar().Infof(msg, args...) }
func (l *ZapLogger) Warnf(msg string, args ...interface{})  { l.z.Sugar().Warnf(msg, args...) }
func (l *ZapLogger) Errorf(msg string, args ...interface{}) { l.z.Sugar().Errorf(msg, args...) }
func (l *ZapLogger) Fatalf(msg string, args ...interface{}) { l.z.Sugar().Fatalf(msg, args...) }

// With returns a child logger carrying fields. Children share the level.
func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(l.convert(fields)...), level: l.level, redacted: l.redacted}
}

func (l *ZapLogger) WithField(key string, value interface{}) Logger {
	return l.With(Any(key, value))
}

func (l *ZapLogger) WithFields(fields Fields) Logger {
	fs := make([]Field, 0, len(fields))
	for k, v := range fields {
		fs = append(fs, Any(k, v))
	}
	return l.With(fs...)
}

func (l *ZapLogger) WithError(err error) Logger {
	return l.With(Err(err))
}

// WithContext returns a logger with the request fields found in ctx.
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	fields := ContextExtractor(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

func (l *ZapLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *ZapLogger) GetLevel() Level {
	return fromZapLevel(l.level.Level())
}

func (l *ZapLogger) convert(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if l.redacted[f.Key] {
			f.Value = redactedValue
		}
		out = append(out, f.zap())
	}
	return out
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

func fromZapLevel(level zapcore.Level) Level {
	switch level {
	case zapcore.DebugLevel:
		return DebugLevel
	case zapcore.WarnLevel:
		return WarnLevel
	case zapcore.ErrorLevel:
		return ErrorLevel
	case zapcore.FatalLevel, zapcore.PanicLevel, zapcore.DPanicLevel:
		return FatalLevel
	}
	return InfoLevel
}
