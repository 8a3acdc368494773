package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/pinterest/teletraan/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "deployboard.json"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultRenderTimeout bounds server-side rendering.
	DefaultRenderTimeout = "5s"

	// DefaultAPITimeout bounds each deploy service call.
	DefaultAPITimeout = "10s"

	// DefaultPollInterval is the environment page refresh interval.
	DefaultPollInterval = "10s"

	// DefaultBuildsLimit is the length of the recent builds list.
	DefaultBuildsLimit = 25

	// DefaultFixture is the fixture document used when remote calls are off.
	DefaultFixture = "data.json"

	// DefaultNamespace is the metrics namespace.
	DefaultNamespace = "deployboard"
)

// fileNames are tried in order by Load.
var fileNames = []string{ConfigFileName, "deployboard.yaml", "deployboard.yml"}

// Config represents the complete deploy board configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server" yaml:"server"`

	// API contains deploy service configuration.
	API APIConfig `json:"api" yaml:"api"`

	// Board contains per-session board configuration.
	Board BoardConfig `json:"board" yaml:"board"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Base is the path prefix the board is served under.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`

	// Hashbang keeps the route path in the URL fragment.
	Hashbang bool `json:"hashbang,omitempty" yaml:"hashbang,omitempty"`

	// RenderTimeout bounds how long a page load waits for data (e.g. "5s").
	RenderTimeout string `json:"renderTimeout,omitempty" yaml:"renderTimeout,omitempty"`

	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers are
	// believed when logging client addresses.
	TrustedProxies []string `json:"trustedProxies,omitempty" yaml:"trustedProxies,omitempty"`
}

// APIConfig contains deploy service settings.
type APIConfig struct {
	// Remote enables calls to the deploy services. When false, data comes
	// from Fixture.
	Remote bool `json:"remote,omitempty" yaml:"remote,omitempty"`

	// ArgonathURL is the deploy and pod service endpoint.
	ArgonathURL string `json:"argonathUrl,omitempty" yaml:"argonathUrl,omitempty"`

	// TeletraanURL is the build service endpoint.
	TeletraanURL string `json:"teletraanUrl,omitempty" yaml:"teletraanUrl,omitempty"`

	// Token authorizes build service calls.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Timeout bounds each call (e.g. "10s").
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Fixture is a local path or s3://bucket/key of the fixture document.
	// Remote mode also reads environments from it.
	Fixture string `json:"fixture,omitempty" yaml:"fixture,omitempty"`

	// S3Region is the region of an s3:// fixture.
	S3Region string `json:"s3Region,omitempty" yaml:"s3Region,omitempty"`
}

// BoardConfig contains board settings.
type BoardConfig struct {
	// PollInterval is the environment page refresh interval (e.g. "10s").
	PollInterval string `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`

	// BuildsLimit is the length of the recent builds list.
	BuildsLimit int `json:"buildsLimit,omitempty" yaml:"buildsLimit,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Disabled turns off the /metrics endpoint.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory. It looks for
// deployboard.json, then deployboard.yaml and deployboard.yml.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E141").
		WithDetail("No deployboard.json or deployboard.yaml found in " + dir).
		WithSuggestion("Run 'deployboard init' to write a default configuration")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No configuration file at " + path).
				WithSuggestion("Run 'deployboard init' to write a default configuration")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON or YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Base == "" {
		c.Server.Base = "/"
	}
	if c.Server.RenderTimeout == "" {
		c.Server.RenderTimeout = DefaultRenderTimeout
	}

	if c.API.Timeout == "" {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.Fixture == "" {
		c.API.Fixture = DefaultFixture
	}

	if c.Board.PollInterval == "" {
		c.Board.PollInterval = DefaultPollInterval
	}
	if c.Board.BuildsLimit == 0 {
		c.Board.BuildsLimit = DefaultBuildsLimit
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ApplyEnv overrides API settings from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("ARGONATH_DOMAIN"); v != "" {
		c.API.ArgonathURL = v
	}
	if v := getenv("TELETRAAN_DOMAIN"); v != "" {
		c.API.TeletraanURL = v
	}
	if v := getenv("TELETRAAN_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := getenv("CALL_REMOTE_APIS"); v != "" {
		if remote, err := strconv.ParseBool(v); err == nil {
			c.API.Remote = remote
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for field, value := range map[string]string{
		"server.renderTimeout": c.Server.RenderTimeout,
		"api.timeout":          c.API.Timeout,
		"board.pollInterval":   c.Board.PollInterval,
	} {
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return errors.New("E121").
				WithDetail(field + " must be a positive duration, got " + strconv.Quote(value))
		}
	}
	if !strings.HasPrefix(c.Server.Base, "/") {
		return errors.New("E121").WithDetail("server.base must start with /")
	}
	if c.Board.BuildsLimit < 0 {
		return errors.New("E121").WithDetail("board.buildsLimit must not be negative")
	}
	if c.API.Remote && (c.API.ArgonathURL == "" || c.API.TeletraanURL == "") {
		return errors.New("E121").
			WithDetail("api.argonathUrl and api.teletraanUrl are required when api.remote is set").
			WithSuggestion("Set ARGONATH_DOMAIN and TELETRAAN_DOMAIN or disable CALL_REMOTE_APIS")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// RenderTimeout returns Server.RenderTimeout as a duration.
func (c *Config) RenderTimeout() time.Duration {
	return parseDuration(c.Server.RenderTimeout, DefaultRenderTimeout)
}

// APITimeout returns API.Timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return parseDuration(c.API.Timeout, DefaultAPITimeout)
}

// PollInterval returns Board.PollInterval as a duration.
func (c *Config) PollInterval() time.Duration {
	return parseDuration(c.Board.PollInterval, DefaultPollInterval)
}

func parseDuration(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// LogLevel returns Log.Level as a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("E121").
			WithDetail("log.level must be debug, info, warn or error, got " + strconv.Quote(c.Log.Level))
	}
	return level, nil
}
