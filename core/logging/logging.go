// Package logging is a thin wrapper of zap logging library.
//
// Log levels are configured per package through environment variables:
//
//	TLVCODEC_LOG=W            default level
//	TLVCODEC_LOG_tlvschema=D  level of a package
//
// TLVCODEC_LOG_FORMAT=console selects human-readable output instead of JSON.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

func newEncoder(format string) zapcore.Encoder {
	if strings.EqualFold(format, FormatConsole) {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
}

func newRoot(format string, w zapcore.WriteSyncer) *zap.Logger {
	return zap.New(zapcore.NewCore(newEncoder(format), w, zap.DebugLevel))
}

var root = newRoot(os.Getenv("TLVCODEC_LOG_FORMAT"), zapcore.Lock(os.Stderr))

// Named creates a named logger without initialization.
func Named(pkg string) *zap.Logger {
	return root.Named(pkg)
}

// New creates a logger initialized with configured log level.
//
// By codebase convention, this should appear in the same .go file as the package docstring:
//
//	var logger = logging.New("Foo")
func New(pkg string) *zap.Logger {
	return Named(pkg).WithOptions(zap.IncreaseLevel(GetLevel(pkg).al))
}

// NewWithWriter creates a logger that writes to w in the given format.
// It honors the configured log level of pkg.
func NewWithWriter(pkg, format string, w zapcore.WriteSyncer) *zap.Logger {
	return newRoot(format, w).Named(pkg).WithOptions(zap.IncreaseLevel(GetLevel(pkg).al))
}
