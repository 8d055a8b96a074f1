// Package status probes the services casedesk depends on and reports their
// connection state.
package status

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/casedesk/internal/model"
)

// DefaultTimeout bounds a single probe when the checker has none configured
const DefaultTimeout = 10 * time.Second

// Probe checks one dependency. Check must honour ctx cancellation.
type Probe interface {
	Name() string
	Check(ctx context.Context) model.ConnectionStatus
}

// Checker runs a fixed set of probes concurrently
type Checker struct {
	probes  []Probe
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker creates a checker. A non-positive timeout uses DefaultTimeout.
func NewChecker(timeout time.Duration, logger *zap.Logger, probes ...Probe) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{probes: probes, timeout: timeout, logger: logger}
}

// Run executes every probe under its own timeout and returns the results in
// registration order. A probe that overruns its timeout is reported as an
// error without waiting for it.
func (c *Checker) Run(ctx context.Context) []model.ConnectionStatus {
	results := make([]model.ConnectionStatus, len(c.probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range c.probes {
		i, probe := i, probe
		g.Go(func() error {
			results[i] = c.runOne(gctx, probe)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		c.logger.Debug("probe finished",
			zap.String("service", r.Service),
			zap.String("status", string(r.Status)),
			zap.Int64("latency_ms", r.Latency))
	}
	return results
}

func (c *Checker) runOne(ctx context.Context, probe Probe) model.ConnectionStatus {
	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan model.ConnectionStatus, 1)
	go func() {
		done <- probe.Check(pctx)
	}()

	select {
	case r := <-done:
		if r.Service == "" {
			r.Service = probe.Name()
		}
		if r.Latency == 0 {
			r.Latency = time.Since(start).Milliseconds()
		}
		return r
	case <-pctx.Done():
		return model.ConnectionStatus{
			Service:    probe.Name(),
			Status:     model.StatusError,
			Message:    fmt.Sprintf("Check timed out after %s", c.timeout),
			Configured: true,
			Latency:    time.Since(start).Milliseconds(),
		}
	}
}

// Healthy reports whether every result is connected
func Healthy(results []model.ConnectionStatus) bool {
	for _, r := range results {
		if r.Status != model.StatusConnected {
			return false
		}
	}
	return true
}

func notConfigured(service, message string) model.ConnectionStatus {
	return model.ConnectionStatus{
		Service:    service,
		Status:     model.StatusDisconnected,
		Message:    message,
		Configured: false,
	}
}
