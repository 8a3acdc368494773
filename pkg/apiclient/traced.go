package apiclient

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/pinterest/teletraan/pkg/apiclient"

// Traced wraps api so that every call runs in a client span.
// A nil tracer uses the global tracer provider.
func Traced(api API, tracer trace.Tracer) API {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &tracedAPI{next: api, tracer: tracer}
}

type tracedAPI struct {
	next   API
	tracer trace.Tracer
}

func (t *tracedAPI) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "apiclient."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracedAPI) FetchEnvironments(ctx context.Context) (envs []Environment, err error) {
	ctx, span := t.start(ctx, "FetchEnvironments")
	defer func() { finish(span, err) }()
	return t.next.FetchEnvironments(ctx)
}

func (t *tracedAPI) FetchEnvironment(ctx context.Context, env, stage string) (e *Environment, err error) {
	ctx, span := t.start(ctx, "FetchEnvironment",
		attribute.String("board.env", env),
		attribute.String("board.stage", stage))
	defer func() { finish(span, err) }()
	return t.next.FetchEnvironment(ctx, env, stage)
}

func (t *tracedAPI) FetchDeploy(ctx context.Context, env, stage, cluster string) (d *Deploy, err error) {
	ctx, span := t.start(ctx, "FetchDeploy",
		attribute.String("board.env", env),
		attribute.String("board.stage", stage),
		attribute.String("board.cluster", cluster))
	defer func() { finish(span, err) }()
	return t.next.FetchDeploy(ctx, env, stage, cluster)
}

func (t *tracedAPI) FetchDeployProgress(ctx context.Context, env, stage, cluster string) (p *Progress, err error) {
	ctx, span := t.start(ctx, "FetchDeployProgress",
		attribute.String("board.env", env),
		attribute.String("board.stage", stage),
		attribute.String("board.cluster", cluster))
	defer func() { finish(span, err) }()
	return t.next.FetchDeployProgress(ctx, env, stage, cluster)
}

func (t *tracedAPI) FetchBuild(ctx context.Context, id string) (b *Build, err error) {
	ctx, span := t.start(ctx, "FetchBuild", attribute.String("board.build_id", id))
	defer func() { finish(span, err) }()
	return t.next.FetchBuild(ctx, id)
}

func (t *tracedAPI) FetchBuilds(ctx context.Context, name string, limit int) (b []BuildWithTag, err error) {
	ctx, span := t.start(ctx, "FetchBuilds",
		attribute.String("board.build_name", name),
		attribute.Int("board.limit", limit))
	defer func() { finish(span, err) }()
	return t.next.FetchBuilds(ctx, name, limit)
}

func (t *tracedAPI) FetchPod(ctx context.Context, name string) (p *Pod, err error) {
	ctx, span := t.start(ctx, "FetchPod", attribute.String("board.pod", name))
	defer func() { finish(span, err) }()
	return t.next.FetchPod(ctx, name)
}

func (t *tracedAPI) SubmitDeploy(ctx context.Context, req DeployRequest) (d *Deploy, err error) {
	ctx, span := t.start(ctx, "SubmitDeploy",
		attribute.String("board.env", req.EnvName),
		attribute.String("board.stage", req.StageName),
		attribute.String("board.build_id", req.BuildID))
	defer func() { finish(span, err) }()
	return t.next.SubmitDeploy(ctx, req)
}
