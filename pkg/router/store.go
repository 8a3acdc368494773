package router

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pinterest/teletraan/internal/errors"
	"github.com/pinterest/teletraan/pkg/reactive"
	"github.com/pinterest/teletraan/pkg/routepath"
)

const tracerName = "github.com/pinterest/teletraan/pkg/router"

// Store owns the current route, parameters and query string and keeps them
// in sync with a History.
type Store struct {
	table   *Table
	history History

	base      string
	hashbang  bool
	logger    *slog.Logger
	tracer    trace.Tracer
	observers []func(*Route)
	lifecycle *fsm.FSM

	state    *reactive.Signal[State]
	revision *reactive.Signal[int]

	// generation identifies the most recently started navigation.
	generation atomic.Uint64
	commitMu   sync.Mutex

	mu             sync.Mutex
	bag            map[string]any
	lastDeactivate *guardRequest
	lastActivate   *guardRequest

	startMu    sync.Mutex
	started    bool
	effect     *reactive.Effect
	stopListen func()
}

// guardRequest identifies one guard invocation for de-duplication: the
// route whose guard runs and the state being left.
type guardRequest struct {
	route  *Route
	params map[string]string
	query  map[string]string
}

func (r *guardRequest) equal(other guardRequest) bool {
	return r != nil &&
		r.route == other.route &&
		maps.Equal(r.params, other.params) &&
		maps.Equal(r.query, other.query)
}

// NewStore creates a store over table and history. Nothing is dispatched
// until Start is called.
func NewStore(table *Table, history History, opts ...Option) *Store {
	s := &Store{
		table:    table,
		history:  history,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		bag:      make(map[string]any),
		state:    reactive.NewSignal(State{}).WithEquals(reactive.NeverEqual[State]),
		revision: reactive.NewSignal(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lifecycle = newLifecycle(s.logger)
	return s
}

// Table returns the store's route table.
func (s *Store) Table() *Table {
	return s.table
}

// History returns the store's history.
func (s *Store) History() History {
	return s.history
}

// Go navigates to a route path template or ID with no parameters.
func (s *Store) Go(pathOrID string) error {
	return s.Navigate(Request{To: pathOrID})
}

// Navigate starts a navigation. It fails only when req.To does not
// resolve; guard outcomes are not reported. Navigating to the current
// route, parameters and query is a no-op.
func (s *Store) Navigate(req Request) error {
	route, ok := s.table.Resolve(req.To)
	if !ok {
		return errors.New("E101").
			WithDetail(req.To).
			WithSuggestion("Navigate to a registered route path or ID")
	}

	query := req.Query
	if req.KeepQuery {
		query = routepath.ParseQuery(s.history.Location().Search)
	}

	_, span := s.tracer.Start(context.Background(), "router.Navigate",
		trace.WithAttributes(
			attribute.String("route.path", route.Path),
			attribute.String("route.id", route.ID),
			attribute.Bool("navigation.replace", req.Replace),
		))
	defer span.End()

	s.transition(route, req.Params, query, req.Replace)
	return nil
}

// NavigateURL navigates to an in-app URL the way following a link would.
// Absolute and malformed URLs are rejected.
func (s *Store) NavigateURL(raw string) error {
	loc, err := routepath.CanonicalizeNavURL(raw)
	if err != nil {
		return errors.New("E101").WithDetail(raw)
	}
	path := loc.RoutePath(s.base, s.hashbang)
	route, params, ok := s.table.Match(path)
	if !ok {
		return errors.New("E101").WithDetail(path)
	}
	s.transition(route, params, routepath.ParseQuery(loc.Search), false)
	return nil
}

// transition runs the guard lifecycle and commits.
func (s *Store) transition(to *Route, params, query map[string]string, replace bool) {
	params = cloneMap(params)
	query = cloneMap(query)

	cur := s.state.Peek()
	routeChanged := cur.Route == nil || cur.Route.Path != to.Path
	paramsChanged := !maps.Equal(params, cur.Params)
	queryChanged := !maps.Equal(query, cur.Query)
	if !routeChanged && !paramsChanged && !queryChanged {
		return
	}

	t := &Transition{
		Store:         s,
		RouteChanged:  routeChanged,
		ParamsChanged: paramsChanged,
		QueryChanged:  queryChanged,
		NewRoute:      to.Path,
		OldParams:     cloneMap(cur.Params),
		NewParams:     cloneMap(params),
		OldQuery:      cloneMap(cur.Query),
		NewQuery:      cloneMap(query),
		Replace:       replace,
		generation:    s.generation.Add(1),
	}
	if cur.Route != nil {
		t.OldRoute = cur.Route.Path
	}

	deactivation := guardRequest{route: cur.Route, params: cur.Params, query: cur.Query}
	activation := guardRequest{route: to, params: cur.Params, query: cur.Query}

	var once sync.Once
	commit := func() {
		once.Do(func() {
			s.commit(t, activation, State{Route: to, Params: params, Query: query, Replace: replace})
		})
	}

	activate := func() {
		s.mu.Lock()
		s.lastDeactivate = &deactivation
		run := to.BeforeActivate != nil && !s.lastActivate.equal(activation)
		if !run {
			s.lastActivate = nil
		}
		s.mu.Unlock()

		if run {
			to.BeforeActivate(t, commit)
			return
		}
		commit()
	}

	if cur.Route == nil {
		activate()
		return
	}

	s.mu.Lock()
	run := cur.Route.BeforeDeactivate != nil && !s.lastDeactivate.equal(deactivation)
	s.mu.Unlock()

	if !run {
		activate()
		return
	}
	var deactivated sync.Once
	cur.Route.BeforeDeactivate(t, func() { deactivated.Do(activate) })
}

// commit publishes next unless a later navigation has started. The state
// change is delivered to observers after the commit lock is released, so an
// observer may navigate.
func (s *Store) commit(t *Transition, activation guardRequest, next State) {
	committed := false
	reactive.Batch(func() {
		s.commitMu.Lock()
		defer s.commitMu.Unlock()

		if t.Canceled() {
			s.logger.Debug("navigation superseded", "route", next.Route.Path)
			return
		}
		s.mu.Lock()
		s.lastActivate = &activation
		s.mu.Unlock()

		s.state.Set(next)
		t.committed.Store(true)
		committed = true
	})
	if !committed {
		return
	}

	s.markActive()
	for _, fn := range s.observers {
		fn(next.Route)
	}
}

// Start dispatches the current history location and begins listening for
// popstate and writing committed state to history. It is a no-op on a
// started store.
func (s *Store) Start() {
	s.startMu.Lock()
	if s.started {
		s.startMu.Unlock()
		return
	}
	s.started = true
	s.stopListen = s.history.Listen(s.dispatch)
	s.effect = reactive.NewEffect(s.syncHistory)
	s.startMu.Unlock()

	s.dispatch(s.history.Location())
}

// Stop detaches the store from history. Committed state is kept.
func (s *Store) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.stopListen()
	s.effect.Dispose()
	s.stopListen = nil
	s.effect = nil
}

// dispatch matches a browser location and navigates to it.
func (s *Store) dispatch(loc routepath.Location) {
	path := loc.RoutePath(s.base, s.hashbang)
	route, params, ok := s.table.Match(path)
	if !ok {
		s.logger.Warn("no route matches location", "path", path)
		return
	}
	s.transition(route, params, routepath.ParseQuery(loc.Search), false)
}

// syncHistory writes the committed URL to history whenever it differs
// from the browser location.
func (s *Store) syncHistory() reactive.Cleanup {
	st := s.state.Get()
	if !st.Active() {
		return nil
	}
	url := s.href(st.Route.Path, st.Params, st.Query)
	if url == s.history.Location().String() {
		return nil
	}

	if !s.history.Supported() {
		s.logger.Warn("history API not supported, falling back to full navigation", "url", url)
		s.history.Assign(url)
		return nil
	}
	if st.Replace {
		s.history.Replace(url)
	} else {
		s.history.Push(url)
	}
	s.revision.Update(func(n int) int { return n + 1 })
	return nil
}

// Current returns the committed state and subscribes the current reactive
// listener to it.
func (s *Store) Current() State {
	return s.state.Get()
}

// Peek returns the committed state without subscribing.
func (s *Store) Peek() State {
	return s.state.Peek()
}

// CurrentState returns a copy of the committed route path, parameters and
// query, or nil before the first commit.
func (s *Store) CurrentState() *RouteState {
	st := s.state.Peek()
	if !st.Active() {
		return nil
	}
	return &RouteState{
		To:     st.Route.Path,
		Params: cloneMap(st.Params),
		Query:  cloneMap(st.Query),
	}
}

// HistoryRevision counts history writes. It is tracked, so memoized
// "is this link active" computations can depend on it.
func (s *Store) HistoryRevision() int {
	return s.revision.Get()
}

// Subscribe calls fn with every committed state. It returns a function
// that cancels the subscription.
func (s *Store) Subscribe(fn func(State)) (stop func()) {
	return reactive.Watch[State](s.state, fn)
}

// HrefFor builds the link for a navigation request.
func (s *Store) HrefFor(req Request) (string, error) {
	route, ok := s.table.Resolve(req.To)
	if !ok {
		return "", errors.New("E101").WithDetail(req.To)
	}
	if req.KeepQuery {
		return routepath.HrefFromPath(s.base, s.hashbang,
			routepath.SerializeParams(route.Path, req.Params),
			s.history.Location().Search), nil
	}
	return s.href(route.Path, req.Params, req.Query), nil
}

// CurrentURL returns the link for the committed state, or "" before the
// first commit.
func (s *Store) CurrentURL() string {
	st := s.state.Peek()
	if !st.Active() {
		return ""
	}
	return s.href(st.Route.Path, st.Params, st.Query)
}

func (s *Store) href(template string, params, query map[string]string) string {
	return routepath.Href(s.base, s.hashbang, template, params, query)
}

// SetContext stores a value in the context bag.
func (s *Store) SetContext(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bag[key] = value
}

// Context returns a value from the context bag.
func (s *Store) Context(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.bag[key]
	return v, ok
}

// DeleteContext removes a value from the context bag.
func (s *Store) DeleteContext(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bag, key)
}

// ContextValue returns the context bag value for key if it has type T.
func ContextValue[T any](s *Store, key string) (T, bool) {
	v, ok := s.Context(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
