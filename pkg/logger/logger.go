package logger

import (
	"os"

	"go.uber.org/zap"
)

// Logger is the structured logging surface shared by services, the HTTP
// engine and the migration runner. Values are alternating key/value pairs.
type Logger interface {
	Info(msg string, values ...any)
	Warn(msg string, values ...any)
	Error(msg string, values ...any)
	Debug(msg string, values ...any)
	Panic(message string, values ...any)
	Fatal(err error, values ...any)
	Printf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

var _ Logger = (*ZapLogger)(nil)

// configFromEnv picks zap's development preset unless LOG_ENV=production.
// LOG_LEVEL overrides the preset level when it parses.
func configFromEnv(getenv func(string) string) zap.Config {
	config := zap.NewDevelopmentConfig()
	if getenv("LOG_ENV") == "production" {
		config = zap.NewProductionConfig()
	}
	if lvl := getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zap.ParseAtomicLevel(lvl); err == nil {
			config.Level = parsed
		}
	}
	return config
}

func init() {
	l, err := NewLogger(configFromEnv(os.Getenv))
	if err != nil {
		panic(err)
	}
	current.Store(l)
}

func Info(msg string, values ...any) {
	GetLogger().Info(msg, values...)
}

func Warn(msg string, values ...any) {
	GetLogger().Warn(msg, values...)
}

func Error(msg string, values ...any) {
	GetLogger().Error(msg, values...)
}

func Debug(msg string, values ...any) {
	GetLogger().Debug(msg, values...)
}

func Panic(msg string, values ...any) {
	GetLogger().Panic(msg, values...)
}

func Fatal(err error, values ...any) {
	GetLogger().Fatal(err, values...)
}

// Sync flushes buffered entries; binaries call it before exiting.
func Sync() {
	_ = GetLogger().log.Sync()
}
