package reactive

import "sync"

// Memo is a cached computation that tracks its dependencies.
//
// Memos are lazy while nobody subscribes to them: a change in a dependency
// only invalidates the cache. Once a memo has subscribers it recomputes as
// soon as a dependency changes and notifies downstream only if the computed
// value differs from the previous one.
type Memo[T any] struct {
	base    signalBase
	compute func() T

	mu      sync.Mutex
	value   T
	valid   bool
	sources []*signalBase
	equal   func(T, T) bool
}

// NewMemo creates a memo. The computation runs on first read.
func NewMemo[T any](compute func() T) *Memo[T] {
	return &Memo[T]{
		base:    signalBase{id: nextID()},
		compute: compute,
	}
}

// Get returns the memo's value, recomputing if needed, and subscribes the
// current listener.
func (m *Memo[T]) Get() T {
	m.base.track()
	return m.Peek()
}

// Peek returns the memo's value without subscribing.
func (m *Memo[T]) Peek() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.valid {
		m.recomputeLocked()
	}
	return m.value
}

// MarkDirty implements Listener.
func (m *Memo[T]) MarkDirty() {
	m.mu.Lock()
	if !m.valid {
		m.mu.Unlock()
		return
	}
	if !m.base.hasSubscribers() {
		m.valid = false
		m.mu.Unlock()
		return
	}
	changed := m.recomputeLocked()
	m.mu.Unlock()

	if changed {
		m.base.notifySubscribers()
	}
}

// ID implements Listener.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

// WithEquals sets a custom equality function and returns the memo.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

func (m *Memo[T]) addSource(source *signalBase) {
	for _, s := range m.sources {
		if s == source {
			return
		}
	}
	m.sources = append(m.sources, source)
}

// recomputeLocked re-runs the computation with m as the tracking listener.
// It reports whether the value changed. m.mu must be held.
func (m *Memo[T]) recomputeLocked() bool {
	for _, source := range m.sources {
		source.unsubscribe(m)
	}
	m.sources = m.sources[:0]

	old := setCurrentListener(m)
	next := m.compute()
	setCurrentListener(old)

	changed := !m.valid || !m.equals(m.value, next)
	m.value = next
	m.valid = true
	return changed
}

func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}
