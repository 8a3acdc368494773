package reactive

import (
	"reflect"
	"sync"
)

// signalBase provides type-erased subscriber management.
// It is embedded in Signal[T] and Memo[T] to share subscription logic.
type signalBase struct {
	id   uint64
	subs []Listener
	mu   sync.RWMutex
}

// subscribe adds a listener, deduplicating by listener ID.
func (s *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}
	s.subs = append(s.subs, l)
}

func (s *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

func (s *signalBase) hasSubscribers() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs) > 0
}

// notifySubscribers copies the subscriber list and notifies it outside the
// lock, or queues it when the calling goroutine is inside a batch.
func (s *signalBase) notifySubscribers() {
	s.mu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	if len(subs) == 0 {
		return
	}
	if inBatch() {
		queuePending(subs)
		return
	}
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// track subscribes the current listener (if any) to s.
func (s *signalBase) track() {
	listener := getCurrentListener()
	if listener == nil {
		return
	}
	s.subscribe(listener)
	if src, ok := listener.(sourceTracker); ok {
		src.addSource(s)
	}
}

// sourceTracker is implemented by listeners that remember what they read so
// they can unsubscribe before re-running.
type sourceTracker interface {
	addSource(source *signalBase)
}

// Signal is a reactive value container.
type Signal[T any] struct {
	base  signalBase
	value T
	mu    sync.RWMutex
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		base:  signalBase{id: nextID()},
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener.
// The subscription is registered before the value is read so that a
// concurrent Set is either observed or notified, never both missed.
func (s *Signal[T]) Get() T {
	s.base.track()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies subscribers if it changed.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
}

// Update atomically reads and replaces the value.
// It returns the value that was stored.
func (s *Signal[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	old := s.value
	next := fn(old)
	changed := !s.equals(old, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.base.notifySubscribers()
	}
	return next
}

// WithEquals sets a custom equality function and returns the signal.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common comparable types and reflect.DeepEqual
// for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// NeverEqual is an equality function that reports every write as a change.
// Use it for values that are replaced wholesale and expensive to compare.
func NeverEqual[T any](T, T) bool { return false }
