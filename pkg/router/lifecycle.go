package router

import (
	"context"
	"log/slog"

	"github.com/looplab/fsm"
)

// Store lifecycle states.
const (
	StateUninitialized = "uninitialized"
	StateActive        = "active"
)

// EventCommit moves the store to StateActive on its first commit.
const EventCommit = "commit"

func newLifecycle(logger *slog.Logger) *fsm.FSM {
	return fsm.NewFSM(
		StateUninitialized,
		fsm.Events{
			{Name: EventCommit, Src: []string{StateUninitialized}, Dst: StateActive},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("router state changed", "from", e.Src, "to", e.Dst)
			},
		},
	)
}

// markActive fires the commit event once. Later commits are no-ops.
func (s *Store) markActive() {
	if !s.lifecycle.Can(EventCommit) {
		return
	}
	if err := s.lifecycle.Event(context.Background(), EventCommit); err != nil {
		s.logger.Debug("lifecycle event rejected", "event", EventCommit, "error", err)
	}
}

// Lifecycle returns the store's current lifecycle state.
func (s *Store) Lifecycle() string {
	return s.lifecycle.Current()
}
