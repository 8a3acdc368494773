package model

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/pinterest/teletraan/pkg/apiclient"
	"github.com/pinterest/teletraan/pkg/asynctrack"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnvModel(api apiclient.API) (*EnvModel, *asynctrack.Tracker) {
	tracker := asynctrack.New()
	return NewEnvModel(api, tracker, WithLogger(quietLogger()), WithBuildsLimit(10)), tracker
}

func TestLoadAllEnvs(t *testing.T) {
	api := newFakeAPI()
	m, tracker := newTestEnvModel(api)

	if err := m.LoadAllEnvs(context.Background()); err != nil {
		t.Fatal(err)
	}
	envs, ok := m.AllEnvs.Peek(AllEnvsKey)
	if !ok || len(envs) != 1 {
		t.Errorf("AllEnvs = %v, %v", envs, ok)
	}
	if tracker.Count() != 0 {
		t.Errorf("tracker count = %d after fetch", tracker.Count())
	}
}

func TestFailedFetchKeepsStaleValue(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	m, tracker := newTestEnvModel(api)

	if err := m.LoadAllEnvs(ctx); err != nil {
		t.Fatal(err)
	}
	api.setFail("FetchEnvironments", true)
	if err := m.LoadAllEnvs(ctx); err == nil {
		t.Fatal("expected error")
	}
	envs, ok := m.AllEnvs.Peek(AllEnvsKey)
	if !ok || len(envs) != 1 {
		t.Errorf("stale value lost: %v, %v", envs, ok)
	}
	if tracker.Count() != 0 {
		t.Errorf("tracker count = %d after failure", tracker.Count())
	}
}

func TestFailedFirstFetchLeavesCacheEmpty(t *testing.T) {
	api := newFakeAPI()
	api.setFail("FetchPod", true)
	m := NewPodModel(api, asynctrack.New(), WithLogger(quietLogger()))

	if _, err := m.LoadPod(context.Background(), "p1"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := m.Pod.Peek("p1"); ok {
		t.Error("failed fetch wrote the cache")
	}
}

func TestLoadEnvMissing(t *testing.T) {
	m, _ := newTestEnvModel(newFakeAPI())
	e, err := m.LoadEnv(context.Background(), "nope", "api")
	if err != nil || e != nil {
		t.Fatalf("LoadEnv = %v, %v", e, err)
	}
	if _, ok := m.Env.Peek(Key("nope", "api")); ok {
		t.Error("missing env was cached")
	}
}

func TestLoadEnvStage(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeAPI)
		env   string
		calls []string
	}{
		{
			name: "full chain",
			env:  "prod",
			calls: []string{
				"FetchEnvironment", "FetchDeploy", "FetchBuild", "FetchBuilds", "FetchDeployProgress",
			},
		},
		{
			name:  "missing env",
			env:   "nope",
			calls: []string{"FetchEnvironment"},
		},
		{
			name:  "no active deploy",
			env:   "prod",
			setup: func(f *fakeAPI) { f.deploy = &apiclient.Deploy{} },
			calls: []string{"FetchEnvironment", "FetchDeploy"},
		},
		{
			name:  "failed build skips builds",
			env:   "prod",
			setup: func(f *fakeAPI) { f.fail["FetchBuild"] = true },
			calls: []string{"FetchEnvironment", "FetchDeploy", "FetchBuild", "FetchDeployProgress"},
		},
		{
			name:  "failed builds keeps going",
			env:   "prod",
			setup: func(f *fakeAPI) { f.fail["FetchBuilds"] = true },
			calls: []string{
				"FetchEnvironment", "FetchDeploy", "FetchBuild", "FetchBuilds", "FetchDeployProgress",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			if tt.setup != nil {
				tt.setup(api)
			}
			m, tracker := newTestEnvModel(api)
			m.LoadEnvStage(context.Background(), tt.env, "api")

			if got := api.Calls(); !reflect.DeepEqual(got, tt.calls) {
				t.Errorf("calls = %v, want %v", got, tt.calls)
			}
			if tracker.Count() != 0 {
				t.Errorf("tracker count = %d", tracker.Count())
			}
		})
	}
}

func TestLoadEnvStageFillsCaches(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestEnvModel(api)
	m.LoadEnvStage(context.Background(), "prod", "api")

	key := Key("prod", "api")
	if d, _ := m.Deploy.Peek(key); d == nil || d.ID != "d-1" {
		t.Errorf("Deploy = %+v", d)
	}
	if b, _ := m.Build.Peek(key); b == nil || b.Name != "api-server" {
		t.Errorf("Build = %+v", b)
	}
	if pods, _ := m.Pods.Peek(key); len(pods["rs-1"]) != 1 {
		t.Errorf("Pods = %+v", pods)
	}
	if sets, _ := m.ReplicaSets.Peek(key); len(sets) != 1 {
		t.Errorf("ReplicaSets = %+v", sets)
	}
	if api.lastCluster != "c1" {
		t.Errorf("deploy fetched on cluster %q, want c1", api.lastCluster)
	}
	if api.lastName != "api-server" || api.lastLimit != 10 {
		t.Errorf("builds fetched as %q/%d", api.lastName, api.lastLimit)
	}
}

func TestLoadEnvStageUsesCachedEnvOnFailure(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	m, _ := newTestEnvModel(api)
	m.LoadEnvStage(ctx, "prod", "api")

	api.setFail("FetchEnvironment", true)
	api.mu.Lock()
	api.calls = nil
	api.mu.Unlock()
	m.LoadEnvStage(ctx, "prod", "api")

	want := []string{
		"FetchEnvironment", "FetchDeploy", "FetchBuild", "FetchBuilds", "FetchDeployProgress",
	}
	if got := api.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestLoadEnvBuilds(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestEnvModel(api)
	m.LoadEnvBuilds(context.Background(), "prod", "api")

	want := []string{"FetchEnvironment", "FetchDeploy", "FetchBuild", "FetchBuilds"}
	if got := api.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if _, ok := m.FindBuild("prod", "api", "b-1"); !ok {
		t.Error("FindBuild(b-1) not found")
	}
	if _, ok := m.FindBuild("prod", "api", "b-9"); ok {
		t.Error("FindBuild(b-9) found")
	}
}

func TestNewDeploy(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	m, _ := newTestEnvModel(api)
	if _, err := m.LoadEnv(ctx, "prod", "api"); err != nil {
		t.Fatal(err)
	}

	d, err := m.NewDeploy(ctx, "prod", "api", apiclient.Build{ID: "b-7", Telefig: "tf"})
	if err != nil || d.ID != "d-2" {
		t.Fatalf("NewDeploy = %+v, %v", d, err)
	}
	want := apiclient.DeployRequest{
		EnvName: "prod", StageName: "api", Telefig: "tf", BuildID: "b-7", DeployClusterName: "c1",
	}
	if len(api.submitted) != 1 || api.submitted[0] != want {
		t.Errorf("submitted = %+v", api.submitted)
	}
	if _, ok := m.Deploy.Peek(Key("prod", "api")); ok {
		t.Error("submit result was cached")
	}
}

func TestLoadEnvPods(t *testing.T) {
	api := newFakeAPI()
	m, _ := newTestEnvModel(api)
	m.LoadEnvPods(context.Background(), "prod", "api")

	want := []string{"FetchEnvironment", "FetchDeployProgress"}
	if got := api.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if pods, ok := m.Pods.Peek(Key("prod", "api")); !ok || len(pods) != 1 {
		t.Errorf("Pods = %v, %v", pods, ok)
	}
}
