package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for one goroutine.
type trackingContext struct {
	// listener is what's currently tracking dependencies.
	// nil means reads don't create subscriptions.
	listener Listener

	// batchDepth tracks nested Batch() calls.
	batchDepth int

	// pending accumulates listeners to notify when the batch completes.
	pending []Listener
}

func (c *trackingContext) idle() bool {
	return c.listener == nil && c.batchDepth == 0 && len(c.pending) == 0
}

// contexts stores per-goroutine tracking contexts keyed by goroutine id.
var contexts sync.Map

// goroutineID parses the current goroutine id out of the runtime stack
// header ("goroutine 123 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func currentContext() *trackingContext {
	gid := goroutineID()
	if ctx, ok := contexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	contexts.Store(gid, ctx)
	return ctx
}

// release drops the goroutine's context once nothing is in flight, so that
// short-lived goroutines (fetches, websocket readers) don't leak entries.
func release(ctx *trackingContext) {
	if ctx.idle() {
		contexts.Delete(goroutineID())
	}
}

func getCurrentListener() Listener {
	gid := goroutineID()
	if ctx, ok := contexts.Load(gid); ok {
		return ctx.(*trackingContext).listener
	}
	return nil
}

// setCurrentListener sets the tracking listener and returns the previous one.
func setCurrentListener(l Listener) Listener {
	ctx := currentContext()
	old := ctx.listener
	ctx.listener = l
	release(ctx)
	return old
}

func inBatch() bool {
	gid := goroutineID()
	if ctx, ok := contexts.Load(gid); ok {
		return ctx.(*trackingContext).batchDepth > 0
	}
	return false
}

func queuePending(subs []Listener) {
	ctx := currentContext()
	ctx.pending = append(ctx.pending, subs...)
}

// Untracked runs fn without tracking signal reads as dependencies.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}
