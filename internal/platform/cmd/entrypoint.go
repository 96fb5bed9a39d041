// Package cmd holds the startup helpers shared by LMS command packages.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/lms/internal/platform/config"
	"github.com/louisbranch/lms/internal/platform/logging"
	"github.com/louisbranch/lms/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Service identifiers used for telemetry resources and log fields.
const (
	ServiceLMS    = "lms"
	ServiceWorker = "worker"
	ServiceCtl    = "lmsctl"
)

// RunOptions controls shared entrypoint behavior for LMS commands.
type RunOptions struct {
	// ShutdownTimeout bounds the trace exporter flush on exit.
	ShutdownTimeout time.Duration
	// Logger receives lifecycle and telemetry messages. Nil discards them.
	Logger *zap.Logger
}

// ParseConfig loads environment values and envDefault tags into cfg. Flags
// registered afterwards use the loaded values as their defaults, so a flag
// always wins over the environment.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags. A nil args slice parses nothing.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return nil
}

// RunWithTelemetryAndOptions installs tracing for service, runs it until it
// returns, and flushes spans before returning the run error.
func RunWithTelemetryAndOptions(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.OrNop(options.Logger).With(zap.String("service", service))

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	started := time.Now()
	logger.Debug("starting")
	if err := run(ctx); err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	logger.Debug("stopped", zap.Duration("uptime", time.Since(started)))
	return nil
}
