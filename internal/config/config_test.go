package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MigrationsPath != "database/migrations" {
		t.Errorf("expected default migrations path, got %q", cfg.MigrationsPath)
	}
	if !cfg.Models.GenerateRelationships {
		t.Error("expected generate_relationships to default true")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".elosql.yaml")
	content := `
connection: primary
exclude_tables:
  - migrations
  - password_resets
models:
  namespace: "App\\Domain\\Models"
  use_fillable: false
features:
  separate_foreign_keys: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Connection != "primary" {
		t.Errorf("expected connection=primary, got %q", cfg.Connection)
	}
	if len(cfg.ExcludeTables) != 2 {
		t.Errorf("expected two excluded tables, got %v", cfg.ExcludeTables)
	}
	if cfg.Models.Namespace != "App\\Domain\\Models" {
		t.Errorf("expected overridden namespace, got %q", cfg.Models.Namespace)
	}
	if cfg.Models.UseFillable {
		t.Error("expected use_fillable to be overridden to false")
	}
	if !cfg.Features.SeparateForeignKeys {
		t.Error("expected separate_foreign_keys to be true")
	}
}

func TestLoadRejectsInvalidIndent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".elosql.yaml")
	content := "formatting:\n  indent: \"a\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an InvalidConfigurationError")
	}
	if _, ok := err.(*InvalidConfigurationError); !ok {
		t.Fatalf("expected *InvalidConfigurationError, got %T", err)
	}
}
