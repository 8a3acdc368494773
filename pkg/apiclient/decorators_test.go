package apiclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"
)

type call struct {
	op, status string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *fakeRecorder) ObserveCall(op, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{op, status})
}

// failingAPI fails every call with err.
type failingAPI struct {
	API
	err error
}

func (f failingAPI) FetchPod(context.Context, string) (*Pod, error) {
	return nil, f.err
}

func (f failingAPI) FetchBuild(context.Context, string) (*Build, error) {
	return nil, f.err
}

func TestInstrumented(t *testing.T) {
	rec := &fakeRecorder{}
	ctx := context.Background()

	ok := Instrumented(NewFixtureClient(FileSource(writeFixture(t, fixtureDoc))), rec)
	if _, err := ok.FetchEnvironments(ctx); err != nil {
		t.Fatal(err)
	}

	failing := Instrumented(failingAPI{err: &StatusError{StatusCode: 502}}, rec)
	if _, err := failing.FetchPod(ctx, "p1"); err == nil {
		t.Fatal("expected error")
	}
	broken := Instrumented(failingAPI{err: errors.New("dial")}, rec)
	if _, err := broken.FetchBuild(ctx, "b"); err == nil {
		t.Fatal("expected error")
	}

	want := []call{
		{"FetchEnvironments", CallOK},
		{"FetchPod", CallHTTPError},
		{"FetchBuild", CallFailed},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, rec.calls[i], want[i])
		}
	}
}

func TestTracedPassesThrough(t *testing.T) {
	ctx := context.Background()
	api := Traced(NewFixtureClient(FileSource(writeFixture(t, fixtureDoc))), noop.NewTracerProvider().Tracer("test"))

	env, err := api.FetchEnvironment(ctx, "prod", "api")
	if err != nil || env == nil || env.ID != "e1" {
		t.Errorf("FetchEnvironment = %+v, %v", env, err)
	}

	wantErr := errors.New("dial")
	traced := Traced(failingAPI{err: wantErr}, nil)
	if _, err := traced.FetchPod(ctx, "p1"); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
