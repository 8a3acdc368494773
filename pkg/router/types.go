package router

import (
	"maps"
	"sync/atomic"

	"github.com/pinterest/teletraan/pkg/routepath"
)

// Component names a renderable view. The view layer maps names to
// templates.
type Component string

// ViewGroup is the set of components rendered for a route.
type ViewGroup struct {
	Main       Component
	Sidebar    Component
	Breadcrumb Component
}

// Guard is a lifecycle hook run during a navigation. It must call next,
// synchronously or later from any goroutine, for the navigation to proceed.
type Guard func(t *Transition, next func())

// Route describes one registered route. Routes must not be modified after
// they are registered in a Table.
type Route struct {
	// Path is the route template, e.g. "/envs/:env/:stage?" or "*".
	Path string

	// ID is an optional symbolic name usable in place of Path.
	ID string

	BeforeActivate   Guard
	BeforeDeactivate Guard

	Views ViewGroup

	// DefaultPath marks the route the catch-all redirects to when the
	// table has no explicit "*" route.
	DefaultPath bool

	// redirect is set for redirect-only routes.
	redirect string
}

// RedirectTarget returns the target of a redirect-only route, or "".
func (r *Route) RedirectTarget() string {
	return r.redirect
}

// Transition describes a navigation in progress. It is shared by the
// deactivation and activation guards of one navigation.
type Transition struct {
	Store *Store

	RouteChanged  bool
	ParamsChanged bool
	QueryChanged  bool

	// OldRoute is "" on the first navigation.
	OldRoute string
	NewRoute string

	OldParams map[string]string
	NewParams map[string]string
	OldQuery  map[string]string
	NewQuery  map[string]string

	Replace bool

	generation uint64
	committed  atomic.Bool
}

// Context returns a value from the store's context bag.
func (t *Transition) Context(key string) (any, bool) {
	return t.Store.Context(key)
}

// Canceled reports whether a later navigation has started. Committing a
// canceled transition has no effect, so async guards can check this before
// starting work that outlives the route.
func (t *Transition) Canceled() bool {
	return t.Store.generation.Load() != t.generation
}

// Committed reports whether the transition's state was published. Once the
// guard's next has returned, false means it never will be.
func (t *Transition) Committed() bool {
	return t.committed.Load()
}

// Request is a navigation request.
type Request struct {
	// To is a route path template or a route ID.
	To string

	Params map[string]string
	Query  map[string]string

	// KeepQuery reuses the query string of the current browser location
	// instead of Query.
	KeepQuery bool

	Replace bool
}

// State is the committed router state. Values are never mutated after they
// are published.
type State struct {
	Route   *Route
	Params  map[string]string
	Query   map[string]string
	Replace bool
}

// Active reports whether a route has been committed.
func (s State) Active() bool {
	return s.Route != nil
}

// RouteState is the plain snapshot returned by Store.CurrentState.
type RouteState struct {
	To     string
	Params map[string]string
	Query  map[string]string
}

// Path serializes the state's route path.
func (s State) Path() string {
	if s.Route == nil {
		return ""
	}
	return routepath.SerializeParams(s.Route.Path, s.Params)
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	maps.Copy(out, m)
	return out
}
