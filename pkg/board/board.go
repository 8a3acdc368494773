// Package board wires one deploy board application: a router store over a
// history, the async tracker, the environment and pod models, the route
// table with its data-loading guards, and the view binder.
//
// A Board is owned by one browser session (or one server-side render) and
// must be closed when the session ends.
package board

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/pinterest/teletraan/pkg/apiclient"
	"github.com/pinterest/teletraan/pkg/asynctrack"
	"github.com/pinterest/teletraan/pkg/model"
	"github.com/pinterest/teletraan/pkg/router"
	"github.com/pinterest/teletraan/pkg/views"
)

// Config configures a Board.
type Config struct {
	// API serves all data. Required.
	API apiclient.API

	// History is the browser history. Default: an in-memory history at "/".
	History router.History

	// Base is the path prefix the board is mounted under.
	Base string

	// Hashbang stores the route path in the URL fragment ("#!/envs").
	Hashbang bool

	// PollInterval is the refresh interval of the environment page.
	// Default: model.DefaultPollInterval
	PollInterval time.Duration

	// BuildsLimit is the length of the recent builds list.
	// Default: model.DefaultBuildsLimit
	BuildsLimit int

	Logger *slog.Logger

	// Gauge mirrors the number of in-flight fetches.
	Gauge asynctrack.Gauge

	// Tracer is used for navigation spans. Default: the global provider.
	Tracer trace.Tracer

	// OnNavigate is called with the route of every commit.
	OnNavigate func(*router.Route)
}

// Board is one application instance.
type Board struct {
	Store   *router.Store
	Tracker *asynctrack.Tracker
	Envs    *model.EnvModel
	Pods    *model.PodModel
	Binder  *views.Binder

	poller *model.Poller
	logger *slog.Logger

	// ctx bounds guard fetches and polling; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a board. Nothing is fetched until Start.
func New(cfg Config) (*Board, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	history := cfg.History
	if history == nil {
		history = router.NewMemoryHistory("/")
	}

	var trackerOpts []asynctrack.Option
	if cfg.Gauge != nil {
		trackerOpts = append(trackerOpts, asynctrack.WithGauge(cfg.Gauge))
	}
	tracker := asynctrack.New(trackerOpts...)

	modelOpts := []model.Option{model.WithLogger(logger), model.WithBuildsLimit(cfg.BuildsLimit)}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{
		Tracker: tracker,
		Envs:    model.NewEnvModel(cfg.API, tracker, modelOpts...),
		Pods:    model.NewPodModel(cfg.API, tracker, modelOpts...),
		poller:  model.NewPoller(cfg.PollInterval, logger),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	table, err := router.NewTable(b.routes())
	if err != nil {
		cancel()
		return nil, err
	}

	storeOpts := []router.Option{
		router.WithBase(cfg.Base),
		router.WithHashbang(cfg.Hashbang),
		router.WithLogger(logger),
	}
	if cfg.Tracer != nil {
		storeOpts = append(storeOpts, router.WithTracer(cfg.Tracer))
	}
	if cfg.OnNavigate != nil {
		storeOpts = append(storeOpts, router.WithNavigationObserver(cfg.OnNavigate))
	}
	b.Store = router.NewStore(table, history, storeOpts...)

	var binderOpts []views.Option
	if !cfg.Hashbang {
		binderOpts = append(binderOpts, views.WithActionBase(cfg.Base))
	}
	b.Binder = views.NewBinder(b.Store, b.Envs, b.Pods, tracker, binderOpts...)
	return b, nil
}

// Start dispatches the history's current location.
func (b *Board) Start() {
	b.Store.Start()
}

// Close stops polling, cancels in-flight guard fetches and detaches the
// store from history.
func (b *Board) Close() {
	b.cancel()
	b.poller.Stop()
	b.Store.Stop()
}

// Render writes the view group of the committed route. Called inside a
// reactive effect, it subscribes the effect to everything it displayed.
func (b *Board) Render(w io.Writer) error {
	return b.Binder.Render(w, b.Store.Current())
}

// Polling returns the key of the active poll loop.
func (b *Board) Polling() (string, bool) {
	return b.poller.Active()
}

// Deploy submits a deploy of buildID to a stage and, on success, navigates
// to the stage's landing page.
func (b *Board) Deploy(ctx context.Context, env, stage, buildID string) (*apiclient.Deploy, error) {
	build, ok := b.Envs.FindBuild(env, stage, buildID)
	if !ok {
		b.Envs.LoadEnvBuilds(ctx, env, stage)
		if build, ok = b.Envs.FindBuild(env, stage, buildID); !ok {
			build = apiclient.Build{ID: buildID}
		}
	}

	d, err := b.Envs.NewDeploy(ctx, env, stage, build)
	if err != nil {
		return nil, err
	}
	b.logger.Info("deploy submitted", "env", env, "stage", stage, "build", buildID, "deploy", d.ID)

	err = b.Store.Navigate(router.Request{
		To:     views.RouteEnvStage,
		Params: map[string]string{"env": env, "stage": stage},
	})
	return d, err
}
