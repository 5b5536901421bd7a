// Package logging builds the process-wide zap logger.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr. format is "console" or "json";
// anything else falls back to json. debug lowers the level to debug.
func New(format string, debug bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	var config zap.Config
	switch strings.ToLower(format) {
	case "console", "":
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = !debug
	default:
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = level
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// ForJob tags every entry with the job's call id and run id.
func ForJob(logger *zap.Logger, callID, runID string) *zap.Logger {
	fields := []zap.Field{zap.String("run_id", runID)}
	if callID != "" {
		fields = append(fields, zap.String("call_id", callID))
	}
	return logger.With(fields...)
}
