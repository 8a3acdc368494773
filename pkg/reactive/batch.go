package reactive

// Batch groups signal updates into a single notification phase.
//
// Listeners affected by updates inside fn are collected, deduplicated and
// notified once the outermost batch on this goroutine returns. Batches nest.
func Batch(fn func()) {
	ctx := currentContext()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth > 0 {
			return
		}
		pending := ctx.pending
		ctx.pending = nil
		release(ctx)
		flush(pending)
	}()

	fn()
}

// flush notifies each distinct listener once, in queue order.
func flush(pending []Listener) {
	if len(pending) == 0 {
		return
	}
	seen := make(map[uint64]bool, len(pending))
	for _, l := range pending {
		id := l.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		l.MarkDirty()
	}
}
