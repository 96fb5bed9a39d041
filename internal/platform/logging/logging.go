// Package logging builds the zap loggers used by LMS processes.
//
// Loggers are injected and named per component: logger.Named("delivery").
// Tests use [Test] or [TestObserved]; [New] is for process runtime.
package logging

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Config selects the level and encoding of a process logger.
type Config struct {
	Level  string `env:"LMS_LOG_LEVEL" envDefault:"info"`
	Format string `env:"LMS_LOG_FORMAT" envDefault:"json"`
}

// New returns a production logger for the given config.
func New(c Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(c.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	format := strings.ToLower(strings.TrimSpace(c.Format))
	switch format {
	case "", "json", "console":
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.Format)
	}
	return NewWith(func(cfg *zap.Config) {
		cfg.Level.SetLevel(level)
		if format == "console" {
			cfg.Encoding = "console"
			cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		}
	})
}

// NewWith returns a new logger from a modified [zap.Config].
func NewWith(cfgFn func(*zap.Config)) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if cfgFn != nil {
		cfgFn(&cfg)
	}
	return cfg.Build()
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Test returns a console logger that writes through tb.
func Test(tb testing.TB) *zap.Logger {
	tb.Helper()
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
	return zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zaptest.NewTestingWriter(tb),
			zapcore.DebugLevel,
		),
	)
}

// TestObserved returns a test logger and the entries it records at lvl.
func TestObserved(tb testing.TB, lvl zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	tb.Helper()
	oCore, logs := observer.New(lvl)
	observe := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, oCore)
	})
	return zaptest.NewLogger(tb, zaptest.WrapOptions(observe, zap.AddCaller())), logs
}
