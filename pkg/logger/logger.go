package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
	"github.com/rs/zerolog"
)

// Logger wraps zerolog with error-first helpers and optional sinks that see
// every line passing the level filter.
type Logger struct {
	zl    zerolog.Logger
	sinks []Sink
}

func New() *Logger {
	return NewFromConfig(LoggerConfig{LogLevel: zerolog.DebugLevel})
}

func NewFromConfig(cfg LoggerConfig) *Logger {
	level := cfg.LogLevel
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}

	zl := zerolog.New(out).With().Timestamp().Caller().Logger().Level(level)
	return &Logger{zl: zl}
}

// Nop discards everything; handy for tests and for sinks that must not recurse.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) child(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl, sinks: l.sinks}
}

func (l *Logger) WithOutput(w io.Writer) *Logger {
	l.zl = l.zl.Output(w)
	return l
}

func (l *Logger) WithLevel(level zerolog.Level) *Logger {
	l.zl = l.zl.Level(level)
	return l
}

// WithComponent returns a child logger tagged with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

func (l *Logger) WithField(key string, value any) *Logger {
	return l.child(l.zl.With().Interface(key, value).Logger())
}

// WithContext prefers a logger attached to ctx by zerolog.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if zl := zerolog.Ctx(ctx); zl != nil && zl.GetLevel() != zerolog.Disabled {
		return l.child(*zl)
	}
	return l.child(l.zl)
}

func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

func (l *Logger) Level() zerolog.Level {
	return l.zl.GetLevel()
}

func (l *Logger) Debug(msg string) { l.emit(zerolog.DebugLevel, nil, msg) }
func (l *Logger) Debugf(format string, v ...any) { l.emit(zerolog.DebugLevel, nil, fmt.Sprintf(format, v...)) }
func (l *Logger) Info(msg string) { l.emit(zerolog.InfoLevel, nil, msg) }
func (l *Logger) Infof(format string, v ...any) { l.emit(zerolog.InfoLevel, nil, fmt.Sprintf(format, v...)) }
func (l *Logger) Warn(msg string) { l.emit(zerolog.WarnLevel, nil, msg) }
func (l *Logger) Warnf(format string, v ...any) { l.emit(zerolog.WarnLevel, nil, fmt.Sprintf(format, v...)) }
func (l *Logger) Log(level zerolog.Level, msg string) { l.emit(level, nil, msg) }

func (l *Logger) Logf(level zerolog.Level, format string, v ...any) {
	l.emit(level, nil, fmt.Sprintf(format, v...))
}

func (l *Logger) Error(err error, msg string) { l.emit(zerolog.ErrorLevel, err, msg) }

func (l *Logger) Errorf(err error, format string, v ...any) {
	l.emit(zerolog.ErrorLevel, err, fmt.Sprintf(format, v...))
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(err error, msg string) { l.emit(zerolog.FatalLevel, err, msg) }

func (l *Logger) Fatalf(err error, format string, v ...any) {
	l.emit(zerolog.FatalLevel, err, fmt.Sprintf(format, v...))
}

// Panic logs and panics with msg.
func (l *Logger) Panic(err error, msg string) { l.emit(zerolog.PanicLevel, err, msg) }

func (l *Logger) Panicf(err error, format string, v ...any) {
	l.emit(zerolog.PanicLevel, err, fmt.Sprintf(format, v...))
}

// emit feeds the sinks before writing, since fatal and panic levels do not
// return from Msg.
func (l *Logger) emit(level zerolog.Level, err error, msg string) {
	l.activateSinks(level, msg)

	var ev *zerolog.Event
	switch level {
	case zerolog.FatalLevel:
		ev = l.zl.Fatal()
	case zerolog.PanicLevel:
		ev = l.zl.Panic()
	default:
		ev = l.zl.WithLevel(level)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.CallerSkipFrame(2).Msg(msg)
}

func (l *Logger) enabled(level zerolog.Level) bool {
	return level >= l.zl.GetLevel() && level >= zerolog.GlobalLevel()
}

func (l *Logger) now() timeutil.TimeUTC {
	return timeutil.NowUTC()
}
