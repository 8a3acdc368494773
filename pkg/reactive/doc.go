// Package reactive provides the observable state primitives used by the
// router store, the async tracker and the data models.
//
// Three primitives cooperate:
//
//   - Signal holds a value and notifies subscribers when it changes.
//   - Memo derives a value from signals and other memos. A memo that has
//     subscribers recomputes eagerly and only notifies downstream when its
//     own value changed, which makes it a natural debouncer.
//   - Effect runs a function, records every signal and memo it read, and
//     re-runs whenever one of them changes.
//
// Reads are tracked per goroutine. Reading a signal inside an effect or memo
// computation subscribes that effect or memo; reading it anywhere else is a
// plain read.
//
// Batch groups updates so that listeners are notified once, after the
// outermost batch returns:
//
//	reactive.Batch(func() {
//	    route.Set(r)
//	    params.Set(p)
//	})
//
// Watch is the explicit subscription helper for code that is not itself an
// effect:
//
//	stop := reactive.Watch(flag, func(v bool) { log.Println("loading:", v) })
//	defer stop()
package reactive
