package board

import (
	"context"

	"github.com/pinterest/teletraan/pkg/model"
	"github.com/pinterest/teletraan/pkg/router"
	"github.com/pinterest/teletraan/pkg/views"
)

func (b *Board) routes() []*router.Route {
	home := router.NewRedirect("/", views.RouteAllEnvs)
	home.ID = views.RouteHome

	envViews := func(main router.Component) router.ViewGroup {
		return router.ViewGroup{Main: main, Sidebar: views.EnvSidebar, Breadcrumb: views.Breadcrumbs}
	}

	return []*router.Route{
		home,
		{
			Path:           "/envs",
			ID:             views.RouteAllEnvs,
			DefaultPath:    true,
			BeforeActivate: b.load(func(ctx context.Context, _ *router.Transition) { _ = b.Envs.LoadAllEnvs(ctx) }),
			Views:          router.ViewGroup{Main: views.AllEnvs, Breadcrumb: views.Breadcrumbs},
		},
		{
			Path:             "/envs/:env/:stage?",
			ID:               views.RouteEnvStage,
			BeforeActivate:   b.activateEnvStage,
			BeforeDeactivate: b.stopPolling,
			Views:            envViews(views.EnvLanding),
		},
		{
			Path: "/envs/:env/:stage/builds",
			ID:   views.RouteEnvBuilds,
			BeforeActivate: b.load(func(ctx context.Context, t *router.Transition) {
				b.Envs.LoadEnvBuilds(ctx, t.NewParams["env"], t.NewParams["stage"])
			}),
			Views: router.ViewGroup{Main: views.EnvBuilds, Breadcrumb: views.Breadcrumbs},
		},
		{
			Path: "/envs/:env/:stage/new_deploy",
			ID:   views.RouteNewDeploy,
			BeforeActivate: b.load(func(ctx context.Context, t *router.Transition) {
				b.Envs.LoadEnvBuilds(ctx, t.NewParams["env"], t.NewParams["stage"])
			}),
			Views: router.ViewGroup{Main: views.NewDeploy, Breadcrumb: views.Breadcrumbs},
		},
		{
			Path: "/envs/:env/:stage/pods",
			ID:   views.RouteEnvPods,
			BeforeActivate: b.load(func(ctx context.Context, t *router.Transition) {
				b.Envs.LoadEnvPods(ctx, t.NewParams["env"], t.NewParams["stage"])
			}),
			Views: envViews(views.EnvPods),
		},
		{
			Path: "/envs/:env/:stage/pods/:podName",
			ID:   views.RoutePod,
			BeforeActivate: b.load(func(ctx context.Context, t *router.Transition) {
				_, _ = b.Pods.LoadPod(ctx, t.NewParams["podName"])
			}),
			Views: router.ViewGroup{Main: views.PodDetail, Breadcrumb: views.Breadcrumbs},
		},
	}
}

// load returns an activation guard that runs fn in the background and
// then lets the navigation commit. The tracker counts the whole guard, so
// the board is pending from the moment the guard starts.
func (b *Board) load(fn func(context.Context, *router.Transition)) router.Guard {
	return func(t *router.Transition, next func()) {
		b.Tracker.Begin()
		go func() {
			defer b.Tracker.End()
			fn(b.ctx, t)
			next()
		}()
	}
}

// activateEnvStage loads the stage and keeps polling it while the route is
// active. The loop is stopped again if the navigation never commits, since
// its deactivation guard would then never run.
func (b *Board) activateEnvStage(t *router.Transition, next func()) {
	env, stage := t.NewParams["env"], t.NewParams["stage"]
	b.Tracker.Begin()
	go func() {
		defer b.Tracker.End()
		b.Envs.LoadEnvStage(b.ctx, env, stage)

		var stop func()
		if !t.Canceled() {
			stop = b.poller.Start(b.ctx, model.Key(env, stage), func(ctx context.Context) {
				b.Envs.LoadEnvStage(ctx, env, stage)
			})
		}
		next()
		if stop != nil && !t.Committed() {
			stop()
		}
	}()
}

func (b *Board) stopPolling(_ *router.Transition, next func()) {
	b.poller.Stop()
	next()
}
