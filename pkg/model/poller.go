package model

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is the refresh interval of the environment page.
const DefaultPollInterval = 10 * time.Second

// Poller runs one refresh function at a fixed interval. Starting it again
// replaces the running loop, so at most one loop is active. Route guards
// start it on activation and stop it on deactivation.
type Poller struct {
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	key    string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller. A non-positive interval selects
// DefaultPollInterval.
func NewPoller(interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{interval: interval, logger: logger}
}

// Interval returns the polling interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins calling fn every interval until Stop, a later Start, or
// ctx is done. key identifies what is polled, for logs and Active. The
// returned func stops this loop and leaves a later one running.
func (p *Poller) Start(ctx context.Context, key string, fn func(context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	p.mu.Lock()
	oldKey, oldCancel, oldDone := p.key, p.cancel, p.done
	p.key, p.cancel, p.done = key, cancel, done
	p.mu.Unlock()

	p.halt(oldKey, oldCancel, oldDone)
	p.logger.Debug("poller started", "key", key, "interval", p.interval)
	return func() { p.stopLoop(done) }
}

// Stop ends the running loop, if any, and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	key, cancel, done := p.key, p.cancel, p.done
	p.key, p.cancel, p.done = "", nil, nil
	p.mu.Unlock()

	p.halt(key, cancel, done)
}

// stopLoop stops the loop owning done, if it is still the current one.
func (p *Poller) stopLoop(done chan struct{}) {
	p.mu.Lock()
	if p.done != done {
		p.mu.Unlock()
		return
	}
	key, cancel := p.key, p.cancel
	p.key, p.cancel, p.done = "", nil, nil
	p.mu.Unlock()

	p.halt(key, cancel, done)
}

func (p *Poller) halt(key string, cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Debug("poller stopped", "key", key)
}

// Active returns the key being polled.
func (p *Poller) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key, p.cancel != nil
}
