package apiclient

import (
	"context"

	"github.com/pinterest/teletraan/internal/errors"
)

// API is the set of remote calls the board makes. Every method is one
// round trip and either returns a payload or fails.
type API interface {
	FetchEnvironments(ctx context.Context) ([]Environment, error)

	// FetchEnvironment returns nil, nil when no environment matches.
	FetchEnvironment(ctx context.Context, env, stage string) (*Environment, error)

	FetchDeploy(ctx context.Context, env, stage, cluster string) (*Deploy, error)
	FetchDeployProgress(ctx context.Context, env, stage, cluster string) (*Progress, error)
	FetchBuild(ctx context.Context, id string) (*Build, error)
	FetchBuilds(ctx context.Context, name string, limit int) ([]BuildWithTag, error)
	FetchPod(ctx context.Context, name string) (*Pod, error)
	SubmitDeploy(ctx context.Context, req DeployRequest) (*Deploy, error)
}

// EnvSource lists environments. The deploy service has no environment
// listing, so HTTPClient reads environments from an EnvSource.
type EnvSource interface {
	FetchEnvironments(ctx context.Context) ([]Environment, error)
}

// Errors returned by API implementations. They match with errors.Is.
var (
	ErrRequest            = errors.New("E201")
	ErrStatus             = errors.New("E202")
	ErrFixtureUnavailable = errors.New("E203")
)

// findEnvironment picks the environment with the given name. Stage is
// matched when more than one stage of the environment is listed.
func findEnvironment(envs []Environment, env, stage string) *Environment {
	var byName *Environment
	for i := range envs {
		if envs[i].EnvName != env {
			continue
		}
		if envs[i].StageName == stage {
			e := envs[i]
			return &e
		}
		if byName == nil {
			e := envs[i]
			byName = &e
		}
	}
	return byName
}
