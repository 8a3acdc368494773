package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pinterest/teletraan/internal/errors"
)

// HTTPClient calls the Argonath deploy service (deploys, progress, pods)
// and the Teletraan build service (builds).
type HTTPClient struct {
	// ArgonathURL is the base URL of the deploy service.
	ArgonathURL string

	// TeletraanURL is the base URL of the build service.
	TeletraanURL string

	// Token authenticates build service calls.
	Token string

	// Envs supplies the environment list.
	Envs EnvSource

	// HTTP is the client used for requests. nil means http.DefaultClient.
	HTTP *http.Client
}

var _ API = (*HTTPClient)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap makes StatusError match ErrStatus.
func (e *StatusError) Unwrap() error {
	return ErrStatus
}

func (c *HTTPClient) FetchEnvironments(ctx context.Context) ([]Environment, error) {
	if c.Envs == nil {
		return nil, errors.New("E203").WithDetail("no environment source configured")
	}
	return c.Envs.FetchEnvironments(ctx)
}

func (c *HTTPClient) FetchEnvironment(ctx context.Context, env, stage string) (*Environment, error) {
	envs, err := c.FetchEnvironments(ctx)
	if err != nil {
		return nil, err
	}
	return findEnvironment(envs, env, stage), nil
}

// FetchDeploy returns an empty deploy, not an error, when the deploy
// service answers with a non-2xx status.
func (c *HTTPClient) FetchDeploy(ctx context.Context, env, stage, cluster string) (*Deploy, error) {
	u := joinURL(c.ArgonathURL, "envs", env, stage, "current") + "?" + url.Values{"deployClusterName": {cluster}}.Encode()
	var out Deploy
	err := c.do(ctx, http.MethodGet, u, nil, "", &out)
	if errors.Is(err, ErrStatus) {
		return &Deploy{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchDeployProgress(ctx context.Context, env, stage, cluster string) (*Progress, error) {
	u := joinURL(c.ArgonathURL, "envs", env, stage, "deploy", "progress") + "?" + url.Values{"deployClusterName": {cluster}}.Encode()
	var out Progress
	if err := c.do(ctx, http.MethodPut, u, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchBuild(ctx context.Context, id string) (*Build, error) {
	var out Build
	if err := c.do(ctx, http.MethodGet, joinURL(c.TeletraanURL, "builds", id), nil, c.Token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FetchBuilds(ctx context.Context, name string, limit int) ([]BuildWithTag, error) {
	q := url.Values{
		"name":      {name},
		"pageIndex": {"1"},
		"pageSize":  {strconv.Itoa(limit)},
	}
	var out []BuildWithTag
	if err := c.do(ctx, http.MethodGet, joinURL(c.TeletraanURL, "builds", "tags")+"?"+q.Encode(), nil, c.Token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) FetchPod(ctx context.Context, name string) (*Pod, error) {
	var out Pod
	if err := c.do(ctx, http.MethodGet, joinURL(c.ArgonathURL, "pods", name), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SubmitDeploy(ctx context.Context, req DeployRequest) (*Deploy, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var out Deploy
	if err := c.do(ctx, http.MethodPost, joinURL(c.ArgonathURL, "envs", req.EnvName, req.StageName, "deploy"), body, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a JSON request and decodes a JSON response into out.
func (c *HTTPClient) do(ctx context.Context, method, u string, body []byte, token string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.New("E201").WithDetail(method + " " + u).Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.New("E201").WithDetail(method + " " + u).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New("E201").WithDetail("decode " + method + " " + u).Wrap(err)
	}
	return nil
}

// joinURL appends escaped path segments to base.
func joinURL(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")
}
