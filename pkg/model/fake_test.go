package model

import (
	"context"
	"errors"
	"sync"

	"github.com/pinterest/teletraan/pkg/apiclient"
)

var errBoom = errors.New("boom")

// fakeAPI serves canned payloads and records the calls it receives.
// Setting fail[op] makes that operation return errBoom.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool

	envs     []apiclient.Environment
	deploy   *apiclient.Deploy
	build    *apiclient.Build
	builds   []apiclient.BuildWithTag
	progress *apiclient.Progress
	pod      *apiclient.Pod

	lastCluster string
	lastName    string
	lastLimit   int
	submitted   []apiclient.DeployRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		fail: map[string]bool{},
		envs: []apiclient.Environment{
			{ID: "e1", EnvName: "prod", StageName: "api", K8sClusterName: "c1"},
		},
		deploy: &apiclient.Deploy{ID: "d-1", BuildID: "b-1", State: "RUNNING"},
		build:  &apiclient.Build{ID: "b-1", Name: "api-server"},
		builds: []apiclient.BuildWithTag{{Build: apiclient.Build{ID: "b-1", Name: "api-server"}}},
		progress: &apiclient.Progress{
			Pods:        map[string][]apiclient.Pod{"rs-1": {{PodName: "p1", Phase: "RUNNING"}}},
			ReplicaSets: []apiclient.ReplicaSet{{Name: "rs-1", CurrentReplicas: 1, DesiredReplicas: 2}},
		},
		pod: &apiclient.Pod{PodName: "p1", Phase: "RUNNING"},
	}
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	if f.fail[op] {
		return errBoom
	}
	return nil
}

func (f *fakeAPI) setFail(op string, v bool) {
	f.mu.Lock()
	f.fail[op] = v
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) FetchEnvironments(context.Context) ([]apiclient.Environment, error) {
	if err := f.record("FetchEnvironments"); err != nil {
		return nil, err
	}
	return f.envs, nil
}

func (f *fakeAPI) FetchEnvironment(_ context.Context, env, stage string) (*apiclient.Environment, error) {
	if err := f.record("FetchEnvironment"); err != nil {
		return nil, err
	}
	for i := range f.envs {
		if f.envs[i].EnvName == env && f.envs[i].StageName == stage {
			e := f.envs[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeAPI) FetchDeploy(_ context.Context, _, _, cluster string) (*apiclient.Deploy, error) {
	if err := f.record("FetchDeploy"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastCluster = cluster
	f.mu.Unlock()
	return f.deploy, nil
}

func (f *fakeAPI) FetchDeployProgress(context.Context, string, string, string) (*apiclient.Progress, error) {
	if err := f.record("FetchDeployProgress"); err != nil {
		return nil, err
	}
	return f.progress, nil
}

func (f *fakeAPI) FetchBuild(context.Context, string) (*apiclient.Build, error) {
	if err := f.record("FetchBuild"); err != nil {
		return nil, err
	}
	return f.build, nil
}

func (f *fakeAPI) FetchBuilds(_ context.Context, name string, limit int) ([]apiclient.BuildWithTag, error) {
	if err := f.record("FetchBuilds"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastName, f.lastLimit = name, limit
	f.mu.Unlock()
	return f.builds, nil
}

func (f *fakeAPI) FetchPod(context.Context, string) (*apiclient.Pod, error) {
	if err := f.record("FetchPod"); err != nil {
		return nil, err
	}
	return f.pod, nil
}

func (f *fakeAPI) SubmitDeploy(_ context.Context, req apiclient.DeployRequest) (*apiclient.Deploy, error) {
	if err := f.record("SubmitDeploy"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, req)
	f.mu.Unlock()
	return &apiclient.Deploy{ID: "d-2", BuildID: req.BuildID, State: "RUNNING"}, nil
}
