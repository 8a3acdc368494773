package reactive

import "sync/atomic"

// Listener is anything that can be notified when a dependency changes.
// Memos and effects implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Cleanup is a function returned by effects to clean up resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// Readable is a value that can be read with or without tracking.
type Readable[T any] interface {
	Get() T
	Peek() T
}

var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}
