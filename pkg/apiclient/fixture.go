package apiclient

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pinterest/teletraan/internal/errors"
)

// Fixture is the data.json document served in local mode.
type Fixture struct {
	Envs        []Environment    `json:"envs"`
	Deploy      *Deploy          `json:"deploy"`
	Build       *Build           `json:"build"`
	Builds      []BuildWithTag   `json:"builds"`
	Pod         *Pod             `json:"pod"`
	Pods        map[string][]Pod `json:"pods"`
	ReplicaSets []ReplicaSet     `json:"replicaSets"`
}

// Source loads the raw fixture document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileSource reads the fixture from a local file.
type FileSource string

func (f FileSource) Load(context.Context) ([]byte, error) {
	return os.ReadFile(string(f))
}

// ObjectGetter is the part of the S3 client FixtureClient needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the fixture from an S3 object.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

func (s S3Source) Load(ctx context.Context) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ParseSource turns a fixture location into a Source. "s3://bucket/key"
// locations use client; anything else is a file path.
func ParseSource(location string, client ObjectGetter) (Source, error) {
	rest, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return FileSource(location), nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return nil, errors.New("E203").
			WithDetail(location).
			WithSuggestion("Use s3://bucket/path/to/data.json")
	}
	if client == nil {
		return nil, errors.New("E203").WithDetail("no S3 client for " + location)
	}
	return S3Source{Client: client, Bucket: bucket, Key: key}, nil
}

// NewS3Client builds an S3 client for region. Credentials are read from
// the standard AWS_* environment variables; without them requests are
// sent unsigned.
func NewS3Client(region string) *s3.Client {
	cfg := aws.Config{Region: region}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		cfg.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     id,
					SecretAccessKey: secret,
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
					Source:          "Environment",
				}, nil
			}))
	}
	return s3.NewFromConfig(cfg)
}

// FixtureClient serves every call from a Fixture document. The document
// is re-read on every call so edits show up without a restart.
type FixtureClient struct {
	source Source

	mu        sync.Mutex
	submitted []DeployRequest
}

var _ API = (*FixtureClient)(nil)

// NewFixtureClient creates a client over source.
func NewFixtureClient(source Source) *FixtureClient {
	return &FixtureClient{source: source}
}

func (c *FixtureClient) load(ctx context.Context) (*Fixture, error) {
	raw, err := c.source.Load(ctx)
	if err != nil {
		return nil, errors.New("E203").Wrap(err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.New("E203").WithDetail("invalid fixture document").Wrap(err)
	}
	return &f, nil
}

func (c *FixtureClient) FetchEnvironments(ctx context.Context) ([]Environment, error) {
	f, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return f.Envs, nil
}

func (c *FixtureClient) FetchEnvironment(ctx context.Context, env, stage string) (*Environment, error) {
	envs, err := c.FetchEnvironments(ctx)
	if err != nil {
		return nil, err
	}
	return findEnvironment(envs, env, stage), nil
}

func (c *FixtureClient) FetchDeploy(ctx context.Context, _, _, _ string) (*Deploy, error) {
	f, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if f.Deploy == nil {
		return &Deploy{}, nil
	}
	return f.Deploy, nil
}

func (c *FixtureClient) FetchDeployProgress(ctx context.Context, _, _, _ string) (*Progress, error) {
	f, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return &Progress{Pods: f.Pods, ReplicaSets: f.ReplicaSets}, nil
}

func (c *FixtureClient) FetchBuild(ctx context.Context, _ string) (*Build, error) {
	f, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return f.Build, nil
}

func (c *FixtureClient) FetchBuilds(ctx context.Context, _ string, limit int) ([]BuildWithTag, error) {
	f, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(f.Builds) > limit {
		return f.Builds[:limit], nil
	}
	return f.Builds, nil
}

func (c *FixtureClient) FetchPod(ctx context.Context, _ string) (*Pod, error) {
	f, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return f.Pod, nil
}

// SubmitDeploy records req and returns a new running deploy.
func (c *FixtureClient) SubmitDeploy(_ context.Context, req DeployRequest) (*Deploy, error) {
	c.mu.Lock()
	c.submitted = append(c.submitted, req)
	c.mu.Unlock()

	return &Deploy{
		ID:        uuid.NewString(),
		BuildID:   req.BuildID,
		Type:      "REGULAR",
		State:     "RUNNING",
		StartDate: time.Now().UnixMilli(),
	}, nil
}

// Submitted returns the deploy requests received so far.
func (c *FixtureClient) Submitted() []DeployRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DeployRequest(nil), c.submitted...)
}
