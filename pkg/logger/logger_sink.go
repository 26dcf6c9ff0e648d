package logger

import (
	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
	"github.com/rs/zerolog"
)

// Sink receives a copy of every emitted log line that passes the level filter.
type Sink func(msg string, level zerolog.Level, timestamp timeutil.TimeUTC)

// AddSinkToLoggerInstance registers an extra sink. Child loggers created
// afterwards inherit it.
func AddSinkToLoggerInstance(l *Logger, sink Sink) {
	l.sinks = append(l.sinks, sink)
}

func (l *Logger) activateSinks(level zerolog.Level, msg string) {
	if len(l.sinks) == 0 || !l.enabled(level) {
		return
	}
	ts := l.now()
	for _, sink := range l.sinks {
		sink(msg, level, ts)
	}
}
