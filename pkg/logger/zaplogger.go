package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// ZapLogger adapts a sugared zap logger to Logger. It also satisfies
// goose.Logger and fasthttp.Logger through Printf and Fatalf.
type ZapLogger struct {
	log *zap.SugaredLogger
}

var current atomic.Pointer[ZapLogger]

// callerSkip hides the package-level helpers and the ZapLogger method from
// the reported caller.
const callerSkip = 2

func NewLogger(config zap.Config) (*ZapLogger, error) {
	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return wrap(l), nil
}

func wrap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{log: l.WithOptions(zap.AddCallerSkip(callerSkip)).Sugar()}
}

func GetLogger() *ZapLogger {
	l := current.Load()
	if l == nil {
		panic("logger not initialized")
	}
	return l
}

// Replace installs l as the package logger and returns a func restoring the
// previous one. Tests use it with zaptest/observer.
func Replace(l *zap.Logger) (restore func()) {
	prev := current.Swap(wrap(l))
	return func() { current.Store(prev) }
}

// With returns a logger that adds the given key/value pairs to every entry.
func (l *ZapLogger) With(values ...any) *ZapLogger {
	return &ZapLogger{log: l.log.With(values...)}
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Fatal(err error, values ...any) {
	l.log.Fatalw(err.Error(), values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *ZapLogger) Fatalf(format string, args ...interface{}) {
	l.log.Fatalf(format, args...)
}
