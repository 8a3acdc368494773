package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a reactive side effect. It runs once on creation and again every
// time a signal or memo it read during its previous run changes.
//
// Runs of a single effect never overlap. A change that arrives while the
// effect is running (from any goroutine, including the effect itself)
// schedules exactly one more run.
type Effect struct {
	id uint64
	fn func() Cleanup

	// mu guards cleanup and sources. Runs and Dispose may happen on
	// different goroutines.
	mu      sync.Mutex
	cleanup Cleanup
	sources []*signalBase

	dirty    atomic.Bool
	running  atomic.Bool
	disposed atomic.Bool
}

// NewEffect creates and immediately runs an effect.
func NewEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id: nextID(),
		fn: fn,
	}
	e.MarkDirty()
	return e
}

// MarkDirty implements Listener.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	e.dirty.Store(true)
	for {
		if !e.running.CompareAndSwap(false, true) {
			return
		}
		for e.dirty.Swap(false) {
			e.run()
		}
		e.running.Store(false)
		if !e.dirty.Load() {
			return
		}
	}
}

// ID implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// Dispose stops the effect and runs its last cleanup. A run in progress on
// another goroutine finishes, and its cleanup runs as soon as it returns.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	e.unsubscribeAll()
	if c := e.takeCleanup(); c != nil {
		c()
	}
}

func (e *Effect) takeCleanup() Cleanup {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.cleanup
	e.cleanup = nil
	return c
}

func (e *Effect) addSource(source *signalBase) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sources {
		if s == source {
			return
		}
	}
	e.sources = append(e.sources, source)
}

func (e *Effect) unsubscribeAll() {
	e.mu.Lock()
	sources := e.sources
	e.sources = nil
	e.mu.Unlock()
	for _, source := range sources {
		source.unsubscribe(e)
	}
}

func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	if c := e.takeCleanup(); c != nil {
		c()
	}
	e.unsubscribeAll()

	c := e.call()

	e.mu.Lock()
	disposed := e.disposed.Load()
	if !disposed {
		e.cleanup = c
	}
	e.mu.Unlock()
	if !disposed {
		return
	}
	// Disposed mid-run: drop what this run subscribed to.
	e.unsubscribeAll()
	if c != nil {
		c()
	}
}

func (e *Effect) call() Cleanup {
	old := setCurrentListener(e)
	defer setCurrentListener(old)
	return e.fn()
}

// Watch calls fn with the new value every time r changes. The initial value
// is not delivered. fn runs untracked.
func Watch[T any](r Readable[T], fn func(T)) (stop func()) {
	var (
		last  T
		first = true
	)
	e := NewEffect(func() Cleanup {
		v := r.Get()
		if first {
			first = false
			last = v
			return nil
		}
		if defaultEquals(last, v) {
			return nil
		}
		last = v
		Untracked(func() { fn(v) })
		return nil
	})
	return e.Dispose
}
