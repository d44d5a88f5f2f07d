package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(msg string, values ...any)
	Warn(msg string, values ...any)
	Error(msg string, values ...any)
	Debug(msg string, values ...any)
	Panic(message string, values ...any)
	Fatal(error error, values ...any)
	Printf(format string, args ...interface{})
}

func init() {
	_, err := NewLogger(BuildConfig("", ""))
	if err != nil {
		panic(err)
	}
}

// BuildConfig picks the zap preset for env ("production" selects JSON output)
// and applies level on top. An unknown level keeps the preset's level.
func BuildConfig(env, level string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	if level != "" {
		if l, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(l)
		}
	}
	return config
}

// Configure replaces the package logger once the configuration is loaded.
func Configure(env, level string) error {
	_, err := NewLogger(BuildConfig(env, level))
	return err
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

func Fatal(error error, values ...any) {
	GetLogger().Fatal(error, values...)
}

// Sync flushes buffered entries, call it before the process exits.
func Sync() {
	_ = GetLogger().log.Sync()
}
