package router

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Store.
type Option func(*Store)

// WithBase sets the path prefix the application is mounted under.
func WithBase(base string) Option {
	return func(s *Store) {
		s.base = base
	}
}

// WithHashbang keeps the route path in a "#!" fragment instead of the
// pathname.
func WithHashbang(enabled bool) Option {
	return func(s *Store) {
		s.hashbang = enabled
	}
}

// WithLogger sets the store's logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithContext seeds the context bag passed to guards.
func WithContext(values map[string]any) Option {
	return func(s *Store) {
		for k, v := range values {
			s.bag[k] = v
		}
	}
}

// WithNavigationObserver registers fn to be called after every commit.
func WithNavigationObserver(fn func(*Route)) Option {
	return func(s *Store) {
		s.observers = append(s.observers, fn)
	}
}

// WithTracer sets the tracer used for navigation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}
