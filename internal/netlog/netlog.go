// Package netlog builds the proxy's structured logger. The session engine
// tags its entries (resolve and connect failures, rejected CONNECTs, origin
// disconnects with unconsumed bytes) with a uuid session id.
package netlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for the given level name ("debug", "info",
// "warn", "error"; anything else falls back to "info"), writing
// console-encoded entries to stderr.
func New(levelName string) (*zap.Logger, error) {
	level := parseLevel(levelName)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

func parseLevel(name string) zapcore.Level {
	switch name {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
