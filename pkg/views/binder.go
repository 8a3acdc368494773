package views

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/pinterest/teletraan/internal/errors"
	"github.com/pinterest/teletraan/pkg/asynctrack"
	"github.com/pinterest/teletraan/pkg/model"
	"github.com/pinterest/teletraan/pkg/router"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("views").Funcs(template.FuncMap{
	"date": formatDate,
}).ParseFS(templateFS, "templates/*.html"))

// ErrUnknownComponent is returned when a route names a component the
// binder cannot render.
var ErrUnknownComponent = errors.New("E106")

// Binder renders the view group of the committed route.
type Binder struct {
	store   *router.Store
	envs    *model.EnvModel
	pods    *model.PodModel
	tracker *asynctrack.Tracker

	actionBase string
}

// Option configures a Binder.
type Option func(*Binder)

// WithActionBase prefixes form actions with the server's base path.
func WithActionBase(base string) Option {
	return func(b *Binder) {
		b.actionBase = strings.TrimSuffix(base, "/")
	}
}

// NewBinder creates a binder. store is used to build links.
func NewBinder(store *router.Store, envs *model.EnvModel, pods *model.PodModel, tracker *asynctrack.Tracker, opts ...Option) *Binder {
	b := &Binder{store: store, envs: envs, pods: pods, tracker: tracker}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind returns the view group of the state's route. It reports false
// before the first commit.
func (b *Binder) Bind(st router.State) (router.ViewGroup, bool) {
	if !st.Active() {
		return router.ViewGroup{}, false
	}
	return st.Route.Views, true
}

type boardData struct {
	Route      string
	Pending    bool
	Main       template.HTML
	Sidebar    template.HTML
	Breadcrumb template.HTML
}

// Render writes the board for st: breadcrumb, sidebar and main slots plus
// the loading flag. Before the first commit the slots are empty.
func (b *Binder) Render(w io.Writer, st router.State) error {
	data := boardData{Pending: b.tracker.Pending()}
	if group, ok := b.Bind(st); ok {
		data.Route = st.Route.ID
		var err error
		if data.Main, err = b.component(group.Main, st); err != nil {
			return err
		}
		if data.Sidebar, err = b.component(group.Sidebar, st); err != nil {
			return err
		}
		if data.Breadcrumb, err = b.component(group.Breadcrumb, st); err != nil {
			return err
		}
	}
	return templates.ExecuteTemplate(w, "board", data)
}

// RenderString is Render into a string.
func (b *Binder) RenderString(st router.State) (string, error) {
	var buf bytes.Buffer
	if err := b.Render(&buf, st); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// component renders one slot. An empty component renders nothing.
func (b *Binder) component(c router.Component, st router.State) (template.HTML, error) {
	if c == "" {
		return "", nil
	}
	build, ok := components[c]
	if !ok {
		return "", errors.New("E106").WithDetail(string(c))
	}

	name, data := string(c), any(nil)
	if v, loading := build(b, st); loading != "" {
		name, data = "loading", loading
	} else {
		data = v
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// link builds an href for a route, or "#" when it does not resolve.
func (b *Binder) link(to string, params, query map[string]string) string {
	href, err := b.store.HrefFor(router.Request{To: to, Params: params, Query: query})
	if err != nil {
		return "#"
	}
	return href
}

func formatDate(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 UTC")
}
