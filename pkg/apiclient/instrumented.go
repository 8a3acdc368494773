package apiclient

import (
	"context"
	"time"

	"github.com/pinterest/teletraan/internal/errors"
)

// Recorder receives one observation per API call.
type Recorder interface {
	ObserveCall(op, status string, elapsed time.Duration)
}

// Call statuses reported to a Recorder.
const (
	CallOK        = "ok"
	CallFailed    = "error"
	CallHTTPError = "http_error"
)

// Instrumented wraps api so that every call is reported to rec.
func Instrumented(api API, rec Recorder) API {
	return &instrumentedAPI{next: api, rec: rec}
}

type instrumentedAPI struct {
	next API
	rec  Recorder
}

// observe reads *err after the call has returned.
func (i *instrumentedAPI) observe(op string, start time.Time, err *error) {
	status := CallOK
	switch {
	case errors.Is(*err, ErrStatus):
		status = CallHTTPError
	case *err != nil:
		status = CallFailed
	}
	i.rec.ObserveCall(op, status, time.Since(start))
}

func (i *instrumentedAPI) FetchEnvironments(ctx context.Context) (envs []Environment, err error) {
	defer i.observe("FetchEnvironments", time.Now(), &err)
	return i.next.FetchEnvironments(ctx)
}

func (i *instrumentedAPI) FetchEnvironment(ctx context.Context, env, stage string) (e *Environment, err error) {
	defer i.observe("FetchEnvironment", time.Now(), &err)
	return i.next.FetchEnvironment(ctx, env, stage)
}

func (i *instrumentedAPI) FetchDeploy(ctx context.Context, env, stage, cluster string) (d *Deploy, err error) {
	defer i.observe("FetchDeploy", time.Now(), &err)
	return i.next.FetchDeploy(ctx, env, stage, cluster)
}

func (i *instrumentedAPI) FetchDeployProgress(ctx context.Context, env, stage, cluster string) (p *Progress, err error) {
	defer i.observe("FetchDeployProgress", time.Now(), &err)
	return i.next.FetchDeployProgress(ctx, env, stage, cluster)
}

func (i *instrumentedAPI) FetchBuild(ctx context.Context, id string) (b *Build, err error) {
	defer i.observe("FetchBuild", time.Now(), &err)
	return i.next.FetchBuild(ctx, id)
}

func (i *instrumentedAPI) FetchBuilds(ctx context.Context, name string, limit int) (b []BuildWithTag, err error) {
	defer i.observe("FetchBuilds", time.Now(), &err)
	return i.next.FetchBuilds(ctx, name, limit)
}

func (i *instrumentedAPI) FetchPod(ctx context.Context, name string) (p *Pod, err error) {
	defer i.observe("FetchPod", time.Now(), &err)
	return i.next.FetchPod(ctx, name)
}

func (i *instrumentedAPI) SubmitDeploy(ctx context.Context, req DeployRequest) (d *Deploy, err error) {
	defer i.observe("SubmitDeploy", time.Now(), &err)
	return i.next.SubmitDeploy(ctx, req)
}
