package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stdout carries rendered pages and results, so logs go to stderr.
const outputPath = "stderr"

// New builds the application logger. Messages are keyed "step".
func New(json bool, debug bool) (*zap.Logger, error) {
	logger, err := newConfig(json, debug).Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	return logger, nil
}

func newConfig(json bool, debug bool) zap.Config {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoding := "console"
	if json {
		encoding = "json"
	}

	return zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{outputPath},
		ErrorOutputPaths: []string{outputPath},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
