package server

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/pinterest/teletraan/internal/errors"
	"github.com/pinterest/teletraan/pkg/board"
	"github.com/pinterest/teletraan/pkg/metrics"
	"github.com/pinterest/teletraan/pkg/router"
	"github.com/pinterest/teletraan/pkg/routepath"
	"github.com/pinterest/teletraan/pkg/views"
)

//go:embed static/live.js static/page.html
var static embed.FS

var page = template.Must(template.ParseFS(static, "static/page.html"))

// Server serves server-rendered boards and live sessions.
type Server struct {
	config *Config
	boards board.Config
	base   string

	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	tracer   trace.Tracer

	proxies  *proxyMatcher
	upgrader websocket.Upgrader
	sessions *sessionManager

	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records board metrics into m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithTracer sets the tracer for request spans. Default: the global
// provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// New creates a server. boards is the template every board is created
// from; its History is replaced per request or session.
func New(config *Config, boards board.Config, opts ...Option) *Server {
	s := &Server{
		config: config.withDefaults(),
		boards: boards,
		base:   strings.TrimSuffix(boards.Base, "/"),
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/pinterest/teletraan/pkg/server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.boards.Logger == nil {
		s.boards.Logger = s.logger
	}

	s.proxies = newProxyMatcher(s.config.TrustedProxies, s.logger)
	s.sessions = newSessionManager(s.metrics, s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  s.config.ReadBufferSize,
		WriteBufferSize: s.config.WriteBufferSize,
		CheckOrigin:     s.config.CheckOrigin,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(tracing(s.tracer))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	if s.base == "" {
		s.boardRoutes(r)
	} else {
		r.Route(s.base, s.boardRoutes)
	}
	return r
}

func (s *Server) boardRoutes(r chi.Router) {
	r.Get("/_board/live", s.handleLive)
	r.Get("/_board/live.js", s.handleScript)
	r.Post("/envs/{env}/{stage}/deploy", s.handleDeploy)
	r.Get("/*", s.handleRender)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	return s.sessions.Count()
}

// newBoard creates a board on history. mode labels its in-flight gauge.
func (s *Server) newBoard(history router.History, mode string) (*board.Board, error) {
	cfg := s.boards
	cfg.History = history
	if s.metrics != nil {
		cfg.Gauge = s.metrics.AsyncGauge(mode)
		observe := cfg.OnNavigate
		cfg.OnNavigate = func(r *router.Route) {
			s.metrics.ObserveNavigation(r)
			if observe != nil {
				observe(r)
			}
		}
	}
	return board.New(cfg)
}

type pageData struct {
	Title     string
	Board     template.HTML
	LiveURL   string
	ScriptURL string
}

// handleRender server-renders the board at the request URL once its data
// has loaded or RenderTimeout has passed.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	reqURL := r.URL.RequestURI()
	logger := s.logger.With("url", reqURL, "request", middleware.GetReqID(r.Context()))

	b, err := s.newBoard(router.NewMemoryHistory(reqURL), "render")
	if err != nil {
		logger.Error("create board", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer b.Close()

	b.Start()
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RenderTimeout)
	defer cancel()
	waitErr := b.Tracker.WaitIdle(ctx)
	if waitErr != nil {
		logger.Warn("rendering before data loaded", "error", waitErr)
	}

	st := b.Store.Peek()
	if !st.Active() {
		if waitErr != nil {
			http.Error(w, "board not ready", http.StatusServiceUnavailable)
			return
		}
		http.NotFound(w, r)
		return
	}
	if current := b.Store.CurrentURL(); !s.boards.Hashbang && current != reqURL {
		http.Redirect(w, r, current, http.StatusFound)
		return
	}

	var body strings.Builder
	if err := b.Binder.Render(&body, st); err != nil {
		logger.Error("render failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = page.Execute(w, pageData{
		Title:     "Deploy board",
		Board:     template.HTML(body.String()),
		LiveURL:   s.base + "/_board/live",
		ScriptURL: s.base + "/_board/live.js",
	})
	if err != nil {
		logger.Error("write page", "error", err)
	}
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, static, "static/live.js")
}

// handleDeploy submits the deploy form and redirects to the stage page.
func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	env, stage := chi.URLParam(r, "env"), chi.URLParam(r, "stage")
	buildID := r.PostFormValue("buildId")
	if buildID == "" {
		http.Error(w, "buildId is required", http.StatusBadRequest)
		return
	}
	logger := s.logger.With("env", env, "stage", stage, "build", buildID,
		"request", middleware.GetReqID(r.Context()), "client", clientIP(r, s.proxies))

	b, err := s.newBoard(router.NewMemoryHistory(r.URL.RequestURI()), "render")
	if err != nil {
		logger.Error("create board", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer b.Close()

	d, err := b.Deploy(r.Context(), env, stage, buildID)
	if err != nil {
		logger.Error("deploy failed", "error", err, "code", errors.Code(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	target, err := b.Store.HrefFor(router.Request{
		To:     views.RouteEnvStage,
		Params: map[string]string{"env": env, "stage": stage},
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("X-Deploy-Id", d.ID)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleLive upgrades to a websocket and runs a live session on it. The
// browser passes its location as ?url= and history=0 when it has no
// History API.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	initial := s.base + "/"
	if raw := r.URL.Query().Get("url"); raw != "" {
		loc, err := routepath.CanonicalizeNavURL(raw)
		if err != nil {
			http.Error(w, "invalid url", http.StatusBadRequest)
			return
		}
		initial = loc.String()
	}
	supported := r.URL.Query().Get("history") != "0"

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(conn, clientIP(r, s.proxies), s.config, s.logger)
	sess.history = newRemoteHistory(initial, supported, sess.send)
	if sess.board, err = s.newBoard(sess.history, "live"); err != nil {
		s.logger.Error("create board", "error", err)
		conn.Close()
		return
	}

	s.sessions.add(sess)
	sess.start()
	sess.ReadLoop()
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address, "base", s.base+"/")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes live sessions and stops the HTTP server within
// ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	start := time.Now()
	s.sessions.CloseAll()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete", "elapsed", time.Since(start))
	return nil
}
