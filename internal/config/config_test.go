package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pinterest/teletraan/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.Base != "/" {
		t.Errorf("Server.Base = %q, want /", cfg.Server.Base)
	}
	if cfg.Board.BuildsLimit != DefaultBuildsLimit {
		t.Errorf("Board.BuildsLimit = %d, want %d", cfg.Board.BuildsLimit, DefaultBuildsLimit)
	}
	if cfg.API.Remote {
		t.Error("API.Remote should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if errors.Code(err) != "E141" {
		t.Errorf("Load(empty dir) code = %q, want E141", errors.Code(err))
	}

	configJSON := `{
  "server": {"addr": ":9000", "base": "/board"},
  "api": {"remote": true, "argonathUrl": "http://argonath", "teletraanUrl": "http://teletraan"},
  "board": {"pollInterval": "30s"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.Base != "/board" {
		t.Errorf("Server.Base = %q", cfg.Server.Base)
	}
	if !cfg.API.Remote || cfg.API.ArgonathURL != "http://argonath" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.PollInterval() != 30*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
	// Unset fields get defaults.
	if cfg.RenderTimeout() != 5*time.Second {
		t.Errorf("RenderTimeout = %v", cfg.RenderTimeout())
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	for _, name := range []string{"deployboard.yaml", "deployboard.yml"} {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configYAML := `
server:
  addr: ":7000"
  hashbang: true
api:
  fixture: s3://bucket/data.json
  s3Region: us-west-2
log:
  level: debug
`
			if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(configYAML), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(tmpDir)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Server.Addr != ":7000" || !cfg.Server.Hashbang {
				t.Errorf("Server = %+v", cfg.Server)
			}
			if cfg.API.Fixture != "s3://bucket/data.json" || cfg.API.S3Region != "us-west-2" {
				t.Errorf("API = %+v", cfg.API)
			}
			if level, err := cfg.LogLevel(); err != nil || level != slog.LevelDebug {
				t.Errorf("LogLevel = %v, %v", level, err)
			}
		})
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	if errors.Code(err) != "E120" {
		t.Errorf("code = %q, want E120", errors.Code(err))
	}
}

func TestSave(t *testing.T) {
	for _, name := range []string{ConfigFileName, "deployboard.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := New()
			cfg.Server.Addr = ":1234"
			cfg.API.Token = "secret"
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo error: %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile error: %v", err)
			}
			if loaded.Server.Addr != ":1234" || loaded.API.Token != "secret" {
				t.Errorf("round trip lost fields: %+v", loaded)
			}

			loaded.Board.BuildsLimit = 5
			if err := loaded.Save(); err != nil {
				t.Fatal(err)
			}
			again, _ := LoadFile(path)
			if again.Board.BuildsLimit != 5 {
				t.Errorf("Save did not persist BuildsLimit")
			}
		})
	}

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ARGONATH_DOMAIN":  "https://argonath.example.com",
		"TELETRAAN_DOMAIN": "https://teletraan.example.com",
		"TELETRAAN_TOKEN":  "tok",
		"CALL_REMOTE_APIS": "true",
	}
	cfg := New()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.API.ArgonathURL != env["ARGONATH_DOMAIN"] ||
		cfg.API.TeletraanURL != env["TELETRAAN_DOMAIN"] ||
		cfg.API.Token != "tok" ||
		!cfg.API.Remote {
		t.Errorf("API = %+v", cfg.API)
	}

	// An unparseable flag leaves the setting alone.
	cfg.ApplyEnv(func(k string) string {
		if k == "CALL_REMOTE_APIS" {
			return "maybe"
		}
		return ""
	})
	if !cfg.API.Remote {
		t.Error("unparseable CALL_REMOTE_APIS changed Remote")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad render timeout", func(c *Config) { c.Server.RenderTimeout = "soon" }, "server.renderTimeout"},
		{"negative poll", func(c *Config) { c.Board.PollInterval = "-1s" }, "board.pollInterval"},
		{"relative base", func(c *Config) { c.Server.Base = "board" }, "server.base"},
		{"negative builds", func(c *Config) { c.Board.BuildsLimit = -1 }, "buildsLimit"},
		{"remote without urls", func(c *Config) { c.API.Remote = true }, "api.argonathUrl"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if errors.Code(err) != "E121" {
				t.Fatalf("Validate() = %v, want E121", err)
			}
			var be *errors.BoardError
			if !errors.As(err, &be) || !strings.Contains(be.Detail, tt.wantErr) {
				t.Errorf("detail = %q, want mention of %q", be.Detail, tt.wantErr)
			}
		})
	}
}

func TestDurationsFallBack(t *testing.T) {
	cfg := New()
	cfg.API.Timeout = "nonsense"
	if cfg.APITimeout() != 10*time.Second {
		t.Errorf("APITimeout = %v", cfg.APITimeout())
	}
}
