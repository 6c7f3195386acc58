package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/Thomas-Okram/TapTell/internal/config"
	"github.com/Thomas-Okram/TapTell/internal/metrics"
	"github.com/Thomas-Okram/TapTell/internal/telemetry"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type StatusReporter interface {
	SetServing(serving bool)
}

type HealthProbe struct {
	db       Pinger
	reporter StatusReporter
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	healthy  *bool
}

func NewHealthProbe(cfg config.Config, db Pinger, reporter StatusReporter) *HealthProbe {
	interval := cfg.HealthProbeInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := cfg.HealthProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthProbe{
		db:       db,
		reporter: reporter,
		interval: interval,
		timeout:  timeout,
		logger:   telemetry.Logger("jobs"),
	}
}

// Start probes once immediately and then on every tick until ctx ends.
func (p *HealthProbe) Start(ctx context.Context) {
	p.Probe(ctx)
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Probe(ctx)
			}
		}
	}()
}

// Probe pings the database and publishes the result. Transitions are
// logged; steady states are not.
func (p *HealthProbe) Probe(ctx context.Context) bool {
	tickCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.db.Ping(tickCtx)
	cancel()

	healthy := err == nil
	if p.reporter != nil {
		p.reporter.SetServing(healthy)
	}
	if healthy {
		metrics.DatabaseUp.Set(1)
	} else {
		metrics.DatabaseUp.Set(0)
	}

	if p.healthy == nil || *p.healthy != healthy {
		if healthy {
			p.logger.Info("database reachable")
		} else {
			p.logger.Error("database probe failed", "err", err)
		}
	}
	p.healthy = &healthy
	return healthy
}
