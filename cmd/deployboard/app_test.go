package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	doc := "server:\n  addr: \":9090\"\n  base: /board/\nboard:\n  buildsLimit: 5\n"
	if err := os.WriteFile(filepath.Join(dir, "deployboard.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELETRAAN_TOKEN", "secret")

	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Board.BuildsLimit != 5 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.API.Token != "secret" {
		t.Errorf("Token = %q, want env override", cfg.API.Token)
	}

	bc := boardConfig(cfg, nil, nil)
	if bc.Base != "/board" {
		t.Errorf("Base = %q, want /board", bc.Base)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("loadConfig accepted a missing file")
	}
}

func TestRoutesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployboard.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := routesCmd(&path)
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("routes: %v", err)
	}

	for _, want := range []string{"/envs/:env/:stage?", "routeEnvStage", "→ routeAllEnvs", "default"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	cmd := initCmd()
	cmd.SetArgs([]string{dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := loadConfig(dir); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}

	cmd = initCmd()
	cmd.SetArgs([]string{dir})
	if err := cmd.Execute(); err == nil {
		t.Error("init overwrote an existing file without --force")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "deployboard dev (none)\n" {
		t.Errorf("version output = %q", got)
	}
}
