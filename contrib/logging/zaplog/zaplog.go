// Package zaplog adapts go.uber.org/zap to the template Logger interface.
//
//	logger, _ := zap.NewProduction()
//	template, _ := cassandra.NewCassandraTemplate(factory,
//	    cassandra.WithLogger(zaplog.New(logger)),
//	)
package zaplog

import (
	"go.uber.org/zap"

	"github.com/spring-projects/spring-data-cassandra-sub011/types"
)

// Logger implements types.Logger on a zap.SugaredLogger. Key-value pairs
// are passed through as structured fields.
type Logger struct {
	sugar *zap.SugaredLogger
}

var _ types.Logger = (*Logger)(nil)

// New wraps logger. A nil logger yields a no-op logger.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Logger{sugar: logger.Sugar()}
}

// Named returns a logger with name appended to the logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{sugar: l.sugar.Named(name)}
}

// With returns a logger that adds keysAndValues to every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.sugar.Debugw(msg, keysAndValues...) }

func (l *Logger) Info(msg string, keysAndValues ...any) { l.sugar.Infow(msg, keysAndValues...) }

func (l *Logger) Warn(msg string, keysAndValues ...any) { l.sugar.Warnw(msg, keysAndValues...) }

func (l *Logger) Error(msg string, keysAndValues ...any) { l.sugar.Errorw(msg, keysAndValues...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
