// Package asynctrack counts in-flight asynchronous operations and exposes
// a debounced "anything loading" flag.
package asynctrack

import (
	"context"

	"github.com/pinterest/teletraan/pkg/reactive"
)

// Gauge is the subset of prometheus.Gauge the tracker updates.
type Gauge interface {
	Inc()
	Dec()
}

// Tracker counts operations between Begin and End. Pending is true while
// the count is positive and changes only on 0→1 and 1→0 edges.
type Tracker struct {
	count   *reactive.Signal[int]
	pending *reactive.Memo[bool]
	gauge   Gauge
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithGauge mirrors the in-flight count into g.
func WithGauge(g Gauge) Option {
	return func(t *Tracker) {
		t.gauge = g
	}
}

// New creates an idle tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{count: reactive.NewSignal(0)}
	t.pending = reactive.NewMemo(func() bool {
		return t.count.Get() > 0
	})
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin records the start of an operation.
func (t *Tracker) Begin() {
	t.count.Update(func(n int) int { return n + 1 })
	if t.gauge != nil {
		t.gauge.Inc()
	}
}

// End records the end of an operation. Calling End more often than Begin
// panics.
func (t *Tracker) End() {
	underflow := false
	t.count.Update(func(n int) int {
		if n == 0 {
			underflow = true
			return 0
		}
		return n - 1
	})
	if underflow {
		panic("asynctrack: End called without a matching Begin")
	}
	if t.gauge != nil {
		t.gauge.Dec()
	}
}

// Count returns the number of in-flight operations.
func (t *Tracker) Count() int {
	return t.count.Peek()
}

// Pending reports whether any operation is in flight. Reading it inside an
// effect subscribes the effect to the flag, not to the count.
func (t *Tracker) Pending() bool {
	return t.pending.Get()
}

// Subscribe calls fn each time the pending flag flips.
func (t *Tracker) Subscribe(fn func(pending bool)) (stop func()) {
	return reactive.Watch[bool](t.pending, fn)
}

// Do runs fn between Begin and End. End runs even if fn panics.
func (t *Tracker) Do(ctx context.Context, fn func(context.Context) error) error {
	t.Begin()
	defer t.End()
	return fn(ctx)
}

// Track is Do for functions that return a value.
func Track[T any](t *Tracker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	t.Begin()
	defer t.End()
	return fn(ctx)
}

// WaitIdle blocks until no operation is in flight or ctx is done.
func (t *Tracker) WaitIdle(ctx context.Context) error {
	if t.Count() == 0 {
		return nil
	}

	idle := make(chan struct{}, 1)
	stop := t.Subscribe(func(pending bool) {
		if pending {
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})
	defer stop()

	// The flag may have dropped before the subscription existed.
	if t.Count() == 0 {
		return nil
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
