package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goaltrack/internal/render"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Export.Scale != 1.5 || cfg.Export.JPEGQuality != 75 || cfg.Export.PageSize != "A4" {
		t.Fatalf("unexpected export defaults: %+v", cfg.Export)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("journal should be enabled by default")
	}
	if cfg.Server.BasePath != "/v0" {
		t.Fatalf("base path %q", cfg.Server.BasePath)
	}
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("export:\n  jpeg_quality: 90\njournal:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Export.JPEGQuality != 90 {
		t.Fatalf("quality %d", cfg.Export.JPEGQuality)
	}
	if cfg.Export.Scale != 1.5 || cfg.Export.FileSuffix != "-tracker.pdf" {
		t.Fatalf("defaults lost: %+v", cfg.Export)
	}
	if cfg.Journal.Enabled {
		t.Fatal("journal override ignored")
	}
	if _, err := FromYAML([]byte("export:\n  scale: 4\n")); err != nil {
		t.Fatalf("scale at the cap rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		yaml string
		want string
	}{
		{"export:\n  scale: 0\n", "scale"},
		{"export:\n  jpeg_quality: 101\n", "jpeg_quality"},
		{"export:\n  page_size: B9\n", "page_size"},
		{"export:\n  scale: 4.5\n", "scale"},
		{"export:\n  file_suffix: a/b.pdf\n", "file_suffix"},
		{"export:\n  default_name: \"  \"\n", "default_name"},
		{"server:\n  base_path: v0\n", "base_path"},
		{"export: [\n", "invalid config yaml"},
	}
	for _, tt := range tests {
		_, err := FromYAML([]byte(tt.yaml))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: expected error mentioning %s, got %v", tt.yaml, tt.want, err)
		}
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing file: cfg=%v err=%v", cfg, err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load should fail without a config file")
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(GenerateDefault()), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil || cfg == nil {
		t.Fatalf("load: cfg=%v err=%v", cfg, err)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Export.PageSize = "Letter"
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	back, err := FromYAML([]byte(out))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if back.Export.PageSize != "Letter" {
		t.Fatalf("page size %q", back.Export.PageSize)
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.yml")
	if err := os.WriteFile(path, []byte("export:\n  page_size: A5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("from file: %v", err)
	}
	if cfg.Export.PageSize != "A5" {
		t.Fatalf("page size %q", cfg.Export.PageSize)
	}
	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMaxScaleMatchesRenderer(t *testing.T) {
	if MaxScale != render.MaxScale {
		t.Fatalf("config cap %d, renderer cap %d", MaxScale, render.MaxScale)
	}
}

func TestOrientationKeyIsGone(t *testing.T) {
	cfg, err := FromYAML([]byte("export:\n  orientation: P\n  page_size: A5\n"))
	if err != nil {
		t.Fatalf("older config rejected: %v", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if strings.Contains(out, "orientation") || strings.Contains(GenerateDefault(), "orientation") {
		t.Fatalf("orientation still rendered:\n%s", out)
	}
}
