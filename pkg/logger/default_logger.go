package logger

import "sync"

type LoggerArg struct {
	Key   string
	Value string
}

type GlobalLoggerConfig struct {
	Args   []LoggerArg
	Config LoggerConfig
}

var (
	defaultLogger     *Logger
	onceLogger        sync.Once
	initializedLogger bool
)

func InitDefaultLogger(config GlobalLoggerConfig) {
	onceLogger.Do(func() {
		base := NewFromConfig(config.Config)
		ctx := base.With()
		for _, arg := range config.Args {
			ctx = ctx.Str(arg.Key, arg.Value)
		}
		base.zl = ctx.Logger()

		defaultLogger = base
		initializedLogger = true
	})
}

func Default() *Logger {
	if !initializedLogger {
		panic("Default logger not initialized: call InitDefaultLogger() first")
	}
	return defaultLogger
}

// OrDefault returns l when set, otherwise the process default or a no-op logger.
func OrDefault(l *Logger) *Logger {
	if l != nil {
		return l
	}
	if initializedLogger {
		return defaultLogger
	}
	return Nop()
}
