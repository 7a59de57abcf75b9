package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// ParseLevel maps a config string to a log level. Empty input selects
// info.
func ParseLevel(raw string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return LevelInfo, nil
	}
	if normalized == "warning" {
		normalized = "warn"
	}
	var level zapcore.Level
	if err := level.Set(normalized); err != nil {
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
	if level < LevelDebug || level > LevelError {
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
	return level, nil
}

// Logger is a key-value front over zap. The *Context variants stamp
// otel trace and span IDs onto each entry.
type Logger struct {
	base     *zap.Logger
	syncOnce sync.Once
}

var active atomic.Pointer[Logger]

func init() {
	active.Store(NewNop())
}

// NewJSON builds a stdout JSON logger at the given level.
func NewJSON(level Level) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stdout), level)
	return FromZap(zap.New(core, zap.AddCaller(), zap.AddStacktrace(LevelError)))
}

func NewNop() *Logger {
	return &Logger{base: zap.NewNop()}
}

func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		return NewNop()
	}
	return &Logger{base: z}
}

// Default returns the process-wide logger installed by SetDefault, or a
// nop logger before that.
func Default() *Logger {
	return active.Load()
}

func SetDefault(logger *Logger) {
	if logger == nil {
		logger = NewNop()
	}
	active.Store(logger)
}

func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.base == nil {
		return zap.NewNop()
	}
	return l.base
}

// Sync flushes buffered entries. Safe to call more than once.
func (l *Logger) Sync() error {
	if l == nil || l.base == nil {
		return nil
	}
	var err error
	l.syncOnce.Do(func() { err = l.base.Sync() })
	return err
}

// With returns a child logger carrying the given key-value pairs.
func (l *Logger) With(args ...any) *Logger {
	return FromZap(l.Zap().With(toFields(args)...))
}

func (l *Logger) Debug(msg string, args ...any) { l.write(nil, LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.write(nil, LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.write(nil, LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.write(nil, LevelError, msg, args) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, msg, args)
}

func (l *Logger) write(ctx context.Context, level Level, msg string, args []any) {
	base := l.Zap()
	if l == nil || l.base == nil {
		base = Default().Zap()
	}

	entry := base.Check(level, msg)
	if entry == nil {
		return
	}

	fields := toFields(args)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
	}
	entry.Write(fields...)
}

// toFields converts alternating key-value args into zap fields. A
// trailing key without a value or a non-string key is kept rather than
// dropped so the mistake shows up in the output.
func toFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, (len(args)+1)/2)
	for len(args) > 0 {
		key, ok := args[0].(string)
		if !ok {
			fields = append(fields, zap.Any("badkey", args[0]))
			args = args[1:]
			continue
		}
		if len(args) == 1 {
			fields = append(fields, zap.String("badkey", key))
			break
		}
		if err, ok := args[1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
		} else {
			fields = append(fields, zap.Any(key, args[1]))
		}
		args = args[2:]
	}
	return fields
}
