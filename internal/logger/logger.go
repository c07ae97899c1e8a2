// Package logger monta os loggers zap usados pelos binários.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New devolve o logger de produção (JSON) ou, com format "console", o de desenvolvimento.
func New(format string, debug bool) (*zap.Logger, error) {
	if format == "console" {
		return NewDevelopmentLogger(debug)
	}
	return NewProductionLogger(debug)
}

// NewProductionLogger cria um logger JSON com stacktrace a partir de error.
func NewProductionLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = level(debug)
	config.Encoding = "json"
	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	return config.Build()
}

func NewDevelopmentLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = level(debug)
	return config.Build()
}

// Sync ignora logger nil; pode ser chamado mais de uma vez.
func Sync(log *zap.Logger) error {
	if log == nil {
		return nil
	}
	return log.Sync()
}

func level(debug bool) zap.AtomicLevel {
	if debug {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel)
}
