package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/esports-fantasy/internal/config"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
)

// Options selects which long-running exporters a process wants.
// One-shot CLI jobs keep tracing but skip profiling.
type Options struct {
	Profiling bool
}

// Telemetry owns tracing, continuous profiling and the pprof listener for one process.
type Telemetry struct {
	logger   *logging.Logger
	stops    []namedStop
	pprofURL string
}

type namedStop struct {
	name string
	fn   func(context.Context) error
}

// Start brings up whatever cfg enables. On error everything already started is stopped.
func Start(cfg config.Config, logger *logging.Logger, opts Options) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger.Named("telemetry")}

	if stop := startTracing(cfg, t.logger); stop != nil {
		t.stops = append(t.stops, namedStop{"uptrace", stop})
	}
	if !opts.Profiling {
		return t, nil
	}

	stopProfiler, err := startProfiler(cfg, t.logger)
	if err != nil {
		_ = t.Shutdown(context.Background())
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	if stopProfiler != nil {
		t.stops = append(t.stops, namedStop{"pyroscope", stopProfiler})
	}

	srv, err := startPprof(cfg, t.logger)
	if err != nil {
		_ = t.Shutdown(context.Background())
		return nil, fmt.Errorf("start pprof: %w", err)
	}
	if srv != nil {
		t.pprofURL = "http://" + srv.addr + "/debug/pprof/"
		t.stops = append(t.stops, namedStop{"pprof", srv.stop})
	}
	return t, nil
}

// PprofURL is empty unless the pprof listener is up.
func (t *Telemetry) PprofURL() string {
	if t == nil {
		return ""
	}
	return t.pprofURL
}

// Shutdown stops components in reverse start order so traces flush last.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for i := len(t.stops) - 1; i >= 0; i-- {
		s := t.stops[i]
		if err := s.fn(ctx); err != nil {
			t.logger.Error("telemetry shutdown failed", "component", s.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	t.stops = nil
	return errors.Join(errs...)
}
