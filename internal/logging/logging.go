// Package logging builds the zap loggers used across the settings layer.
package logging

import (
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log encoding.
type Format string

const (
	// FormatConsole is human-readable output.
	FormatConsole Format = "console"
	// FormatJSON is structured JSON output.
	FormatJSON Format = "json"
)

// ParseLevel converts a level name to a zap level. Unknown names are info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat converts a format name. Unknown names are console.
func ParseFormat(name string) Format {
	if Format(strings.ToLower(strings.TrimSpace(name))) == FormatJSON {
		return FormatJSON
	}
	return FormatConsole
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New creates a logger writing to w at the given level and format.
func New(w io.Writer, level string, format Format) *zap.SugaredLogger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(ParseLevel(level)))
	return zap.New(core, zap.AddCaller()).Sugar()
}
