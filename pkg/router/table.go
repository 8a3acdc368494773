package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pinterest/teletraan/internal/errors"
	"github.com/pinterest/teletraan/pkg/routepath"
)

// Sentinel errors. They match any error with the same code under
// errors.Is.
var (
	ErrRouteNotFound = errors.New("E101")
	ErrDuplicatePath = errors.New("E102")
	ErrDuplicateID   = errors.New("E103")
	ErrInvalidRoute  = errors.New("E104")
)

// Table is an immutable registry of routes, keyed by path template and by
// ID.
type Table struct {
	routes []*Route
	byPath map[string]*Route
	byID   map[string]*Route
	root   *node
}

// Entry is a value of the keyed registration form: either a *Route or a
// Redirect.
type Entry interface {
	entry()
}

func (*Route) entry() {}

// Redirect is a redirect-only entry. Activating it navigates to the target
// path or ID.
type Redirect string

func (Redirect) entry() {}

// NewTable registers routes in order.
//
// The first route with Path "*" is the catch-all. When there is none, the
// first route marked DefaultPath gets a generated catch-all that redirects
// to it.
func NewTable(routes []*Route) (*Table, error) {
	var (
		hasCatchAll bool
		defaultPath string
	)
	for _, r := range routes {
		if r == nil {
			continue
		}
		if r.Path == routepath.Wildcard {
			hasCatchAll = true
		} else if r.DefaultPath && defaultPath == "" {
			defaultPath = r.Path
		}
	}

	all := routes
	if !hasCatchAll && defaultPath != "" {
		all = append(append([]*Route(nil), routes...), redirectRoute(routepath.Wildcard, defaultPath))
	}
	return build(all)
}

// NewTableFromMap registers routes keyed by path template. The key
// overrides the route's Path. Keys are registered in sorted order.
func NewTableFromMap(entries map[string]Entry) (*Table, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	routes := make([]*Route, 0, len(keys))
	for _, path := range keys {
		switch e := entries[path].(type) {
		case Redirect:
			routes = append(routes, redirectRoute(path, string(e)))
		case *Route:
			if e == nil {
				return nil, errors.New("E104").WithDetail(fmt.Sprintf("nil route for %q", path))
			}
			r := *e
			r.Path = path
			routes = append(routes, &r)
		default:
			return nil, errors.New("E104").WithDetail(fmt.Sprintf("unsupported entry %T for %q", e, path))
		}
	}
	return build(routes)
}

// NewRedirect returns a route whose activation always navigates to
// target, a route path template or ID. Callers may set its ID and Views.
func NewRedirect(path, target string) *Route {
	return redirectRoute(path, target)
}

// redirectRoute builds a route whose activation always navigates to target.
func redirectRoute(path, target string) *Route {
	return &Route{
		Path:     path,
		redirect: target,
		BeforeActivate: func(t *Transition, next func()) {
			if err := t.Store.Go(target); err != nil {
				t.Store.logger.Warn("redirect failed", "from", path, "to", target, "error", err)
			}
		},
	}
}

func build(routes []*Route) (*Table, error) {
	t := &Table{
		byPath: make(map[string]*Route, len(routes)),
		byID:   make(map[string]*Route),
		root:   &node{},
	}

	for _, r := range routes {
		if r == nil {
			return nil, errors.New("E104").WithDetail("nil route")
		}
		if err := validateRoute(r); err != nil {
			return nil, err
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, errors.New("E102").WithDetail(r.Path)
		}
		if r.ID != "" {
			if _, dup := t.byID[r.ID]; dup {
				return nil, errors.New("E103").WithDetail(r.ID)
			}
			t.byID[r.ID] = r
		}
		if !t.root.insert(r) {
			return nil, errors.New("E102").
				WithDetail(r.Path).
				WithSuggestion("Another route matches the same URLs; rename a static segment")
		}
		t.byPath[r.Path] = r
		t.routes = append(t.routes, r)
	}
	return t, nil
}

func validateRoute(r *Route) error {
	if r.Path == routepath.Wildcard {
		return nil
	}
	if !strings.HasPrefix(r.Path, "/") {
		return errors.New("E104").
			WithDetail(fmt.Sprintf("path %q must start with /", r.Path)).
			WithSuggestion("Use \"*\" for the catch-all route")
	}
	seen := make(map[string]bool)
	for _, seg := range routepath.ParseTemplate(r.Path) {
		if !seg.Param {
			continue
		}
		if seg.Literal == "" {
			return errors.New("E104").WithDetail(fmt.Sprintf("empty parameter name in %q", r.Path))
		}
		if seen[seg.Literal] {
			return errors.New("E104").WithDetail(fmt.Sprintf("parameter %q repeated in %q", seg.Literal, r.Path))
		}
		seen[seg.Literal] = true
	}
	return nil
}

// Resolve looks up a route by path template first, then by ID.
func (t *Table) Resolve(pathOrID string) (*Route, bool) {
	if r, ok := t.byPath[pathOrID]; ok {
		return r, true
	}
	r, ok := t.byID[pathOrID]
	return r, ok
}

// Match finds the route for a concrete browser path and extracts its
// parameters. The path is canonicalized first.
func (t *Table) Match(path string) (*Route, map[string]string, bool) {
	canonical, err := routepath.CanonicalizePath(path)
	if err != nil {
		return nil, nil, false
	}
	return t.root.lookup(canonical)
}

// Routes returns the registered routes in registration order.
func (t *Table) Routes() []*Route {
	return append([]*Route(nil), t.routes...)
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}
