package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pinterest/teletraan/pkg/apiclient"
	"github.com/pinterest/teletraan/pkg/board"
	"github.com/pinterest/teletraan/pkg/metrics"
)

const fixtureDoc = `{
  "envs": [
    {"id": "e1", "envName": "prod", "stageName": "api", "k8sClusterName": "c1"},
    {"id": "e2", "envName": "dev", "stageName": "web", "k8sClusterName": "c2"}
  ],
  "deploy": {"id": "d-1", "buildId": "b-1", "state": "RUNNING", "successTotal": 1, "total": 2},
  "build": {"id": "b-1", "name": "api-server", "branch": "main", "commitShort": "abc123"},
  "builds": [{"build": {"id": "b-1", "name": "api-server"}}],
  "pod": {"podName": "p1", "phase": "RUNNING"},
  "pods": {"rs-1": [{"podName": "p1", "phase": "RUNNING"}]},
  "replicaSets": [{"name": "rs-1", "currentReplicas": 1, "desiredReplicas": 1}]
}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixtureAPI(t *testing.T) *apiclient.FixtureClient {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(fixtureDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return apiclient.NewFixtureClient(apiclient.FileSource(path))
}

func newTestServer(t *testing.T, base string, opts ...Option) (*Server, *apiclient.FixtureClient) {
	t.Helper()
	api := newFixtureAPI(t)
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	srv := New(&Config{RenderTimeout: 5 * time.Second}, board.Config{
		API:          api,
		Base:         base,
		PollInterval: time.Hour,
	}, opts...)
	return srv, api
}

func serve(srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRenderPage(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := serve(srv, http.MethodGet, "/envs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`href="/envs/prod/api"`,
		`data-live="/_board/live"`,
		`src="/_board/live.js"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s:\n%s", want, body)
		}
	}
}

func TestRenderRedirects(t *testing.T) {
	srv, _ := newTestServer(t, "")

	tests := []struct {
		target string
		want   string
	}{
		{"/", "/envs"},
		{"/no/such/page", "/envs"},
		{"/envs/", "/envs"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(srv, http.MethodGet, tt.target, nil)
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.want {
				t.Errorf("Location = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderUnderBase(t *testing.T) {
	srv, _ := newTestServer(t, "/board")

	rec := serve(srv, http.MethodGet, "/board/envs/prod/api", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "main/abc123") {
		t.Errorf("build not rendered:\n%s", body)
	}
	if !strings.Contains(body, `data-live="/board/_board/live"`) {
		t.Errorf("live URL not under base:\n%s", body)
	}

	rec = serve(srv, http.MethodGet, "/board", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/board/envs" {
		t.Errorf("GET /board = %d %q, want 302 /board/envs", rec.Code, rec.Header().Get("Location"))
	}
}

func TestDeploy(t *testing.T) {
	srv, api := newTestServer(t, "")

	form := url.Values{"buildId": {"b-1"}}
	rec := serve(srv, http.MethodPost, "/envs/prod/api/deploy", strings.NewReader(form.Encode()))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Location"); got != "/envs/prod/api" {
		t.Errorf("Location = %q", got)
	}
	submitted := api.Submitted()
	if len(submitted) != 1 || submitted[0].BuildID != "b-1" {
		t.Errorf("submitted = %+v", submitted)
	}

	rec = serve(srv, http.MethodPost, "/envs/prod/api/deploy", strings.NewReader(""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing buildId status = %d, want 400", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	srv, _ := newTestServer(t, "", WithMetrics(m, reg))

	if rec := serve(srv, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := serve(srv, http.MethodGet, "/envs", nil); rec.Code != http.StatusOK {
		t.Fatalf("render status = %d", rec.Code)
	}

	rec := serve(srv, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `deployboard_navigations_total{route="routeAllEnvs"} 1`) {
		t.Errorf("navigation not counted:\n%s", rec.Body)
	}
}

func TestScript(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rec := serve(srv, http.MethodGet, "/_board/live.js", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "WebSocket") {
		t.Errorf("script status = %d", rec.Code)
	}
}

// readUntil reads frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) serverFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s frame: %v", typ, err)
		}
		var f serverFrame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if f.Type == typ {
			return f
		}
	}
}

// readRender reads render frames until one contains want.
func readRender(t *testing.T, conn *websocket.Conn, want string) serverFrame {
	t.Helper()
	for {
		if f := readUntil(t, conn, frameRender); strings.Contains(f.HTML, want) {
			return f
		}
	}
}

func TestLiveSession(t *testing.T) {
	srv, _ := newTestServer(t, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_board/live?url=" + url.QueryEscape("/envs")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readRender(t, conn, `href="/envs/prod/api"`)

	nav, _ := json.Marshal(clientFrame{Type: frameNavigate, URL: "/envs/prod/api"})
	if err := conn.WriteMessage(websocket.TextMessage, nav); err != nil {
		t.Fatal(err)
	}
	if f := readUntil(t, conn, framePush); f.URL != "/envs/prod/api" {
		t.Errorf("push url = %q", f.URL)
	}
	readRender(t, conn, `data-route="routeEnvStage"`)

	bad, _ := json.Marshal(clientFrame{Type: frameNavigate, To: "routeMissing"})
	if err := conn.WriteMessage(websocket.TextMessage, bad); err != nil {
		t.Fatal(err)
	}
	if f := readUntil(t, conn, frameError); f.Message == "" {
		t.Error("error frame without message")
	}

	pop, _ := json.Marshal(clientFrame{Type: framePopstate, URL: "/envs"})
	if err := conn.WriteMessage(websocket.TextMessage, pop); err != nil {
		t.Fatal(err)
	}
	readRender(t, conn, `data-route="routeAllEnvs"`)

	if n := srv.Sessions(); n != 1 {
		t.Errorf("Sessions = %d, want 1", n)
	}
	conn.Close()
	for i := 0; srv.Sessions() != 0 && i < 50; i++ {
		time.Sleep(20 * time.Millisecond)
	}
	if n := srv.Sessions(); n != 0 {
		t.Errorf("Sessions after close = %d, want 0", n)
	}
}

func TestLiveRejectsAbsoluteURL(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rec := serve(srv, http.MethodGet, "/_board/live?url="+url.QueryEscape("https://evil.example/"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
