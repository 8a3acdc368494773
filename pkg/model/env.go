package model

import (
	"context"
	"log/slog"

	"github.com/pinterest/teletraan/pkg/apiclient"
	"github.com/pinterest/teletraan/pkg/asynctrack"
)

// AllEnvsKey is the single key of EnvModel.AllEnvs.
const AllEnvsKey = "all"

// DefaultBuildsLimit is the page size of the recent builds list.
const DefaultBuildsLimit = 25

// EnvModel caches environments and everything shown on an environment's
// pages. All caches except AllEnvs are keyed by Key(env, stage).
type EnvModel struct {
	AllEnvs     *Cache[[]apiclient.Environment]
	Env         *Cache[*apiclient.Environment]
	Deploy      *Cache[*apiclient.Deploy]
	Build       *Cache[*apiclient.Build]
	Builds      *Cache[[]apiclient.BuildWithTag]
	Pods        *Cache[map[string][]apiclient.Pod]
	ReplicaSets *Cache[[]apiclient.ReplicaSet]

	api         apiclient.API
	tracker     *asynctrack.Tracker
	logger      *slog.Logger
	buildsLimit int
}

// Option configures a model.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	buildsLimit int
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBuildsLimit sets how many recent builds LoadBuilds requests.
func WithBuildsLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buildsLimit = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), buildsLimit: DefaultBuildsLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewEnvModel creates an EnvModel with empty caches.
func NewEnvModel(api apiclient.API, tracker *asynctrack.Tracker, opts ...Option) *EnvModel {
	o := buildOptions(opts)
	return &EnvModel{
		AllEnvs:     NewCache[[]apiclient.Environment](),
		Env:         NewCache[*apiclient.Environment](),
		Deploy:      NewCache[*apiclient.Deploy](),
		Build:       NewCache[*apiclient.Build](),
		Builds:      NewCache[[]apiclient.BuildWithTag](),
		Pods:        NewCache[map[string][]apiclient.Pod](),
		ReplicaSets: NewCache[[]apiclient.ReplicaSet](),
		api:         api,
		tracker:     tracker,
		logger:      o.logger,
		buildsLimit: o.buildsLimit,
	}
}

// fetch runs call under the tracker. On failure it logs and returns the
// error; the caller writes the cache only on success.
func fetch[T any](ctx context.Context, tracker *asynctrack.Tracker, logger *slog.Logger, op, key string, call func(context.Context) (T, error)) (T, error) {
	v, err := asynctrack.Track(tracker, ctx, call)
	if err != nil {
		logger.Warn("fetch failed", "op", op, "key", key, "error", err)
	}
	return v, err
}

// LoadAllEnvs refreshes the environment list.
func (m *EnvModel) LoadAllEnvs(ctx context.Context) error {
	envs, err := fetch(ctx, m.tracker, m.logger, "FetchEnvironments", AllEnvsKey, m.api.FetchEnvironments)
	if err != nil {
		return err
	}
	m.AllEnvs.Set(AllEnvsKey, envs)
	return nil
}

// LoadEnv refreshes one environment. It returns nil when the environment
// does not exist; the cache is left as it was in that case.
func (m *EnvModel) LoadEnv(ctx context.Context, env, stage string) (*apiclient.Environment, error) {
	key := Key(env, stage)
	e, err := fetch(ctx, m.tracker, m.logger, "FetchEnvironment", key, func(ctx context.Context) (*apiclient.Environment, error) {
		return m.api.FetchEnvironment(ctx, env, stage)
	})
	if err != nil || e == nil {
		return nil, err
	}
	m.Env.Set(key, e)
	return e, nil
}

// LoadDeploy refreshes the active deploy of a stage on cluster.
func (m *EnvModel) LoadDeploy(ctx context.Context, env, stage, cluster string) (*apiclient.Deploy, error) {
	key := Key(env, stage)
	d, err := fetch(ctx, m.tracker, m.logger, "FetchDeploy", key, func(ctx context.Context) (*apiclient.Deploy, error) {
		return m.api.FetchDeploy(ctx, env, stage, cluster)
	})
	if err != nil {
		return nil, err
	}
	m.Deploy.Set(key, d)
	return d, nil
}

// LoadBuild refreshes the build of a stage's active deploy.
func (m *EnvModel) LoadBuild(ctx context.Context, env, stage, buildID string) (*apiclient.Build, error) {
	key := Key(env, stage)
	b, err := fetch(ctx, m.tracker, m.logger, "FetchBuild", key, func(ctx context.Context) (*apiclient.Build, error) {
		return m.api.FetchBuild(ctx, buildID)
	})
	if err != nil {
		return nil, err
	}
	m.Build.Set(key, b)
	return b, nil
}

// LoadBuilds refreshes the recent builds named name.
func (m *EnvModel) LoadBuilds(ctx context.Context, env, stage, name string) ([]apiclient.BuildWithTag, error) {
	key := Key(env, stage)
	builds, err := fetch(ctx, m.tracker, m.logger, "FetchBuilds", key, func(ctx context.Context) ([]apiclient.BuildWithTag, error) {
		return m.api.FetchBuilds(ctx, name, m.buildsLimit)
	})
	if err != nil {
		return nil, err
	}
	m.Builds.Set(key, builds)
	return builds, nil
}

// LoadProgress refreshes pods and replica sets of a stage on cluster.
func (m *EnvModel) LoadProgress(ctx context.Context, env, stage, cluster string) error {
	key := Key(env, stage)
	p, err := fetch(ctx, m.tracker, m.logger, "FetchDeployProgress", key, func(ctx context.Context) (*apiclient.Progress, error) {
		return m.api.FetchDeployProgress(ctx, env, stage, cluster)
	})
	if err != nil {
		return err
	}
	if p == nil {
		p = &apiclient.Progress{}
	}
	m.Pods.Set(key, p.Pods)
	m.ReplicaSets.Set(key, p.ReplicaSets)
	return nil
}

// refreshEnv loads an environment, falling back to the cached one when
// the fetch fails.
func (m *EnvModel) refreshEnv(ctx context.Context, env, stage string) *apiclient.Environment {
	e, err := m.LoadEnv(ctx, env, stage)
	if err != nil {
		e, _ = m.Env.Peek(Key(env, stage))
	}
	return e
}

// LoadEnvStage refreshes everything the environment landing page shows.
// The fetches run one after another because each needs a field of the
// previous result. Without an environment or an active deploy there is
// nothing more to load and LoadEnvStage returns early. A failed step falls
// back to the cached value when there is one.
func (m *EnvModel) LoadEnvStage(ctx context.Context, env, stage string) {
	key := Key(env, stage)
	e := m.refreshEnv(ctx, env, stage)
	if e == nil {
		return
	}

	d, err := m.LoadDeploy(ctx, env, stage, e.K8sClusterName)
	if err != nil {
		d, _ = m.Deploy.Peek(key)
	}
	if d.Empty() {
		return
	}

	if b, err := m.LoadBuild(ctx, env, stage, d.BuildID); err == nil && b != nil {
		_, _ = m.LoadBuilds(ctx, env, stage, b.Name)
	}

	_ = m.LoadProgress(ctx, env, stage, e.K8sClusterName)
}

// LoadEnvBuilds refreshes the environment and the builds it can deploy.
// The builds list is named after the build of the active deploy.
func (m *EnvModel) LoadEnvBuilds(ctx context.Context, env, stage string) {
	key := Key(env, stage)
	e := m.refreshEnv(ctx, env, stage)
	if e == nil {
		return
	}

	b, ok := m.Build.Peek(key)
	if !ok || b == nil {
		d, err := m.LoadDeploy(ctx, env, stage, e.K8sClusterName)
		if err != nil || d.Empty() {
			return
		}
		if b, err = m.LoadBuild(ctx, env, stage, d.BuildID); err != nil || b == nil {
			return
		}
	}
	_, _ = m.LoadBuilds(ctx, env, stage, b.Name)
}

// LoadEnvPods refreshes the environment and its pods.
func (m *EnvModel) LoadEnvPods(ctx context.Context, env, stage string) {
	if e := m.refreshEnv(ctx, env, stage); e != nil {
		_ = m.LoadProgress(ctx, env, stage, e.K8sClusterName)
	}
}

// NewDeploy submits a deploy of build to a stage. The cluster comes from
// the cached environment. Nothing is cached.
func (m *EnvModel) NewDeploy(ctx context.Context, env, stage string, build apiclient.Build) (*apiclient.Deploy, error) {
	key := Key(env, stage)
	req := apiclient.DeployRequest{
		EnvName:   env,
		StageName: stage,
		Telefig:   build.Telefig,
		BuildID:   build.ID,
	}
	if e, ok := m.Env.Peek(key); ok && e != nil {
		req.DeployClusterName = e.K8sClusterName
	}
	return fetch(ctx, m.tracker, m.logger, "SubmitDeploy", key, func(ctx context.Context) (*apiclient.Deploy, error) {
		return m.api.SubmitDeploy(ctx, req)
	})
}

// FindBuild looks up a build by id in the cached recent builds of a stage.
func (m *EnvModel) FindBuild(env, stage, id string) (apiclient.Build, bool) {
	builds, _ := m.Builds.Peek(Key(env, stage))
	for _, b := range builds {
		if b.Build.ID == id {
			return b.Build, true
		}
	}
	if b, ok := m.Build.Peek(Key(env, stage)); ok && b != nil && b.ID == id {
		return *b, true
	}
	return apiclient.Build{}, false
}
