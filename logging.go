package ntat

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the library logger. An empty level means info, an empty
// file means stderr, and disable returns a no-op logger.
func NewLogger(level, file string, disable bool) (*zap.Logger, error) {
	if disable {
		return zap.NewNop(), nil
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", level)
		}
		lvl = parsed
	}

	writer := zapcore.AddSync(os.Stderr)
	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open log file %s", file)
		}
		writer = zapcore.AddSync(f)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.NameKey = "name"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), writer, zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller()).Named("ntat"), nil
}
