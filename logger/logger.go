// Package logger provides structured logging for Keyfold.
//
// It wraps Uber's zap logger with a level knob and initializes a global
// instance used across the engine and the CLI:
//
//	logger.InitLogger("debug") // debug, info, warn, error
//	logger.Log.Info("login succeeded", zap.String("user_id", id))
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger = zap.NewNop()

// InitLogger builds the global logger at the given level. Unparseable
// levels fall back to info.
func InitLogger(level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	Log, err = cfg.Build()
	if err != nil {
		panic(err)
	}
}
