package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"github.com/pinterest/teletraan/internal/config"
	"github.com/pinterest/teletraan/internal/errors"
	"github.com/pinterest/teletraan/pkg/apiclient"
	"github.com/pinterest/teletraan/pkg/board"
	"github.com/pinterest/teletraan/pkg/metrics"
)

const tracerName = "github.com/pinterest/teletraan/cmd/deployboard"

// loadConfig reads the configuration at path (a file or a directory) and
// applies environment overrides. Without --config a missing file in the
// working directory means defaults.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case path == "":
		cfg, err = config.Load(".")
		if errors.Code(err) == "E141" {
			cfg, err = config.New(), nil
		}
	case isDir(path):
		cfg, err = config.Load(path)
	default:
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// newLogger installs a text logger at the configured level as the default.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

// newAPI builds the data-fetch boundary: the deploy services in remote
// mode, the fixture document otherwise. Calls are traced, and recorded
// when m is not nil.
func newAPI(cfg *config.Config, m *metrics.Metrics) (apiclient.API, error) {
	var s3Client apiclient.ObjectGetter
	if strings.HasPrefix(cfg.API.Fixture, "s3://") {
		s3Client = apiclient.NewS3Client(cfg.API.S3Region)
	}
	source, err := apiclient.ParseSource(cfg.API.Fixture, s3Client)
	if err != nil {
		return nil, err
	}
	fixture := apiclient.NewFixtureClient(source)

	var api apiclient.API = fixture
	if cfg.API.Remote {
		api = &apiclient.HTTPClient{
			ArgonathURL:  cfg.API.ArgonathURL,
			TeletraanURL: cfg.API.TeletraanURL,
			Token:        cfg.API.Token,
			Envs:         fixture,
			HTTP:         &http.Client{Timeout: cfg.APITimeout()},
		}
	}

	api = apiclient.Traced(api, otel.Tracer(tracerName))
	if m != nil {
		api = apiclient.Instrumented(api, m)
	}
	return api, nil
}

// newMetrics creates the collectors on a fresh registry, or returns nils
// when metrics are disabled.
func newMetrics(cfg *config.Config) (*metrics.Metrics, *prometheus.Registry) {
	if cfg.Metrics.Disabled {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithRegistry(reg),
	)
	return m, reg
}

// boardConfig is the template every board is created from.
func boardConfig(cfg *config.Config, api apiclient.API, logger *slog.Logger) board.Config {
	return board.Config{
		API:          api,
		Base:         strings.TrimSuffix(cfg.Server.Base, "/"),
		Hashbang:     cfg.Server.Hashbang,
		PollInterval: cfg.PollInterval(),
		BuildsLimit:  cfg.Board.BuildsLimit,
		Logger:       logger,
		Tracer:       otel.Tracer(tracerName),
	}
}
