package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
provider:
  name: claude
  model: claude-sonnet-4-20250514
store:
  driver: memory
corpus:
  path: testdata/corpus.md
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Provider.Name != "claude" {
		t.Errorf("expected claude provider, got %q", cfg.Provider.Name)
	}
	// untouched defaults survive
	if cfg.Pipeline.MaxEvidence != 12 {
		t.Errorf("expected default max_evidence 12, got %d", cfg.Pipeline.MaxEvidence)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("provider:\n  name: cohere\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "provider.name") {
		t.Fatalf("expected provider.name validation error, got %v", err)
	}
}

func TestPostgresRequiresDSN(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "postgres"
	cfg.Store.DSN = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "store.dsn") {
		t.Fatalf("expected store.dsn validation error, got %v", err)
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("a", "").
		RequirePositive("b", 0).
		ValidateOneOf("c", "x", "y", "z")
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(v.Errors()))
	}
	if v.Error() == nil {
		t.Fatalf("expected combined error")
	}
}
