package conn

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestProberConfigDefaults(t *testing.T) {
	cfg := DefaultProberConfig()
	if cfg.Interval != DefaultProbeInterval {
		t.Errorf("Interval = %v, want %v", cfg.Interval, DefaultProbeInterval)
	}
	if cfg.MaxMissed != DefaultMaxMissedProbes {
		t.Errorf("MaxMissed = %d, want %d", cfg.MaxMissed, DefaultMaxMissedProbes)
	}
	if got := cfg.DetectionDelay(); got != DefaultProbeInterval*DefaultMaxMissedProbes {
		t.Errorf("DetectionDelay() = %v", got)
	}
}

func TestProberReportsLossAfterMaxMissed(t *testing.T) {
	var pings atomic.Int32
	lost := make(chan struct{})

	p := NewProber(
		ProberConfig{Interval: 10 * time.Millisecond, MaxMissed: 3},
		func() error {
			pings.Add(1)
			return errors.New("broken pipe")
		},
		func() { close(lost) },
	)
	p.Start(context.Background())
	defer p.Stop()

	select {
	case <-lost:
	case <-time.After(time.Second):
		t.Fatal("loss never reported")
	}

	if got := pings.Load(); got < 3 {
		t.Errorf("ping count = %d, want >= 3", got)
	}
	if p.IsRunning() {
		t.Error("prober still running after reporting loss")
	}
}

func TestProberResetsMissCountOnSuccess(t *testing.T) {
	var calls atomic.Int32
	lost := make(chan struct{}, 1)

	// Fail twice, succeed, fail twice: never reaches three consecutive.
	p := NewProber(
		ProberConfig{Interval: 10 * time.Millisecond, MaxMissed: 3},
		func() error {
			n := calls.Add(1)
			if n == 3 {
				return nil
			}
			if n > 5 {
				return nil
			}
			return errors.New("flaky")
		},
		func() { lost <- struct{}{} },
	)
	p.Start(context.Background())
	defer p.Stop()

	time.Sleep(150 * time.Millisecond)

	select {
	case <-lost:
		t.Error("loss reported despite successful probe resetting the count")
	default:
	}
}

func TestProberStopIsIdempotent(t *testing.T) {
	p := NewProber(
		ProberConfig{Interval: 10 * time.Millisecond, MaxMissed: 3},
		func() error { return nil },
		nil,
	)
	p.Start(context.Background())
	p.Stop()
	p.Stop()
	if p.IsRunning() {
		t.Error("prober running after Stop")
	}
}

func TestProberStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewProber(
		ProberConfig{Interval: 10 * time.Millisecond, MaxMissed: 3},
		func() error { return nil },
		nil,
	)
	p.Start(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for p.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("prober did not stop after context cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
