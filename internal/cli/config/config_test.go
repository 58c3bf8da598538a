package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsDefaultsWhenConfigMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Version != 1 {
		t.Fatalf("Version = %d, want 1", c.Version)
	}
	if c.DefaultServer != "main" {
		t.Fatalf("DefaultServer = %q, want %q", c.DefaultServer, "main")
	}
	if len(c.Servers) != 0 {
		t.Fatalf("Servers = %v, want empty", c.Servers)
	}
	if c.Preferences["default_format"] != "table" {
		t.Fatalf("default_format = %q, want %q", c.Preferences["default_format"], "table")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	c.SetDefault("http://localhost:8787", "fp_sess_abc", "sess-1")
	if err := Save(c); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	p, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join(home, ".flowpilot", "config.json")
	if p != want {
		t.Fatalf("Path() = %q, want %q", p, want)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Fatalf("config mode = %v, want 0600", got)
	}

	again, err := Load()
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	srv, ok := again.Default()
	if !ok {
		t.Fatal("Default() missing after save")
	}
	if srv.URL != "http://localhost:8787" || srv.Token != "fp_sess_abc" || srv.SessionID != "sess-1" {
		t.Fatalf("unexpected server: %+v", srv)
	}
	if srv.ConnectedAt == "" {
		t.Fatal("ConnectedAt not set")
	}
}

func TestClearDefaultRemovesServer(t *testing.T) {
	c := &Config{Version: 1, DefaultServer: "main", Servers: map[string]Server{}}
	c.SetDefault("http://localhost:8787", "fp_sess_abc", "sess-1")
	c.ClearDefault()
	if _, ok := c.Default(); ok {
		t.Fatal("Default() still present after ClearDefault")
	}
}
