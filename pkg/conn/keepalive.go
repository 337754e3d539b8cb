package conn

import (
	"context"
	"sync"
	"time"
)

// Keep-alive constants.
const (
	// DefaultProbeInterval is the default interval between probes.
	DefaultProbeInterval = 30 * time.Second

	// DefaultMaxMissedProbes is the default number of failed probes
	// before the connection is considered lost.
	DefaultMaxMissedProbes = 3
)

// ProberConfig configures keep-alive probing.
type ProberConfig struct {
	// Interval is the time between probes.
	Interval time.Duration

	// MaxMissed is the number of consecutive failed probes before the
	// connection is reported lost.
	MaxMissed int
}

// DefaultProberConfig returns the default prober configuration.
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		Interval:  DefaultProbeInterval,
		MaxMissed: DefaultMaxMissedProbes,
	}
}

// DetectionDelay is the worst-case time to detect a lost connection.
func (c ProberConfig) DetectionDelay() time.Duration {
	return c.Interval * time.Duration(c.MaxMissed)
}

// Prober monitors transport liveness by sending synchronous probes at a
// fixed interval. Transport.Ping waits for the peer's reply, so a probe
// either succeeds or counts as missed; MaxMissed consecutive misses
// trigger the onLost callback once and stop the prober.
type Prober struct {
	config ProberConfig
	ping   func() error
	onLost func()

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	missed  int
}

// NewProber creates a keep-alive prober. ping is typically
// Transport.Ping; onLost is invoked from the probe goroutine.
func NewProber(config ProberConfig, ping func() error, onLost func()) *Prober {
	if config.Interval == 0 {
		config.Interval = DefaultProbeInterval
	}
	if config.MaxMissed == 0 {
		config.MaxMissed = DefaultMaxMissedProbes
	}
	return &Prober{
		config: config,
		ping:   ping,
		onLost: onLost,
		stopCh: make(chan struct{}),
	}
}

// Start begins probing. A second Start while running is a no-op.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.missed = 0
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.loop(ctx, stopCh)
}

// Stop stops probing. Safe to call multiple times.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

// IsRunning returns true while the probe loop is active.
func (p *Prober) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Missed returns the current consecutive miss count.
func (p *Prober) Missed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.missed
}

func (p *Prober) loop(ctx context.Context, stopCh chan struct{}) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if p.probe() {
				continue
			}
			p.Stop()
			if p.onLost != nil {
				p.onLost()
			}
			return
		}
	}
}

// probe sends one probe and returns false once the miss budget is spent.
func (p *Prober) probe() bool {
	err := p.ping()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.missed++
		return p.missed < p.config.MaxMissed
	}
	p.missed = 0
	return true
}
