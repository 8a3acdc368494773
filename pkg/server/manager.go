package server

import (
	"log/slog"
	"sync"

	"github.com/pinterest/teletraan/pkg/metrics"
)

// sessionManager tracks live sessions.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func newSessionManager(m *metrics.Metrics, logger *slog.Logger) *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*Session),
		metrics:  m,
		logger:   logger,
	}
}

func (m *sessionManager) add(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.onClose = m.remove
	if m.metrics != nil {
		m.metrics.SessionOpened()
	}
}

func (m *sessionManager) remove(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if ok && m.metrics != nil {
		m.metrics.SessionClosed()
	}
}

// Count returns the number of live sessions.
func (m *sessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every live session.
func (m *sessionManager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	if len(all) > 0 {
		m.logger.Info("closing live sessions", "count", len(all))
	}
	for _, s := range all {
		s.Close()
	}
}
