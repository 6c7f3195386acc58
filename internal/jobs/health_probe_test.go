package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Thomas-Okram/TapTell/internal/config"
	"github.com/Thomas-Okram/TapTell/internal/metrics"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

type recorder struct {
	states []bool
}

func (r *recorder) SetServing(serving bool) { r.states = append(r.states, serving) }

func TestProbeTracksDatabase(t *testing.T) {
	db := &fakePinger{}
	rec := &recorder{}
	probe := NewHealthProbe(config.Config{}, db, rec)

	if !probe.Probe(context.Background()) {
		t.Fatalf("expected healthy probe")
	}
	if got := testutil.ToFloat64(metrics.DatabaseUp); got != 1 {
		t.Fatalf("expected gauge 1, got %v", got)
	}

	db.err = errors.New("connection refused")
	if probe.Probe(context.Background()) {
		t.Fatalf("expected unhealthy probe")
	}
	if got := testutil.ToFloat64(metrics.DatabaseUp); got != 0 {
		t.Fatalf("expected gauge 0, got %v", got)
	}
	if len(rec.states) != 2 || !rec.states[0] || rec.states[1] {
		t.Fatalf("unexpected reported states %v", rec.states)
	}
}

func TestStartStopsWithContext(t *testing.T) {
	rec := &recorder{}
	probe := NewHealthProbe(config.Config{}, &fakePinger{}, rec)
	ctx, cancel := context.WithCancel(context.Background())
	probe.Start(ctx)
	cancel()
	if len(rec.states) != 1 || !rec.states[0] {
		t.Fatalf("expected an immediate probe, got %v", rec.states)
	}
}
