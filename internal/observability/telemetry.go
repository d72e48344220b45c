package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/h2h-analyzer/internal/config"
	"github.com/riskibarqy/h2h-analyzer/internal/platform/logging"
)

// Telemetry owns the tracing, profiling and pprof hooks of one process.
type Telemetry struct {
	logger          *logging.Logger
	shutdownTracing func(context.Context) error
	stopProfiler    func() error
	pprofServer     *http.Server
}

// Setup starts every enabled telemetry backend. On error, anything already
// started is stopped before returning.
func Setup(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	t := &Telemetry{logger: logger}

	shutdownTracing, err := InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	t.shutdownTracing = shutdownTracing

	stopProfiler, err := InitPyroscope(cfg, logger)
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	t.stopProfiler = stopProfiler

	t.pprofServer = StartPprofServer(cfg, logger)
	return t, nil
}

// Shutdown flushes and stops everything Setup started.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if err := StopPprofServer(ctx, t.pprofServer, t.logger); err != nil {
		errs = append(errs, fmt.Errorf("stop pprof: %w", err))
	}
	if t.stopProfiler != nil {
		if err := t.stopProfiler(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
	}
	if t.shutdownTracing != nil {
		if err := t.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
		}
	}
	return errors.Join(errs...)
}
