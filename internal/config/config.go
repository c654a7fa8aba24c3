package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const FileName = "goaltrack.yml"

// Config models goaltrack.yml.
type Config struct {
	Export struct {
		Scale       float64 `yaml:"scale"`
		JPEGQuality int     `yaml:"jpeg_quality"`
		PageSize    string  `yaml:"page_size"`
		FileSuffix  string  `yaml:"file_suffix"`
		DefaultName string  `yaml:"default_name"`
	} `yaml:"export"`
	Journal struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"journal"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
}

var pageSizes = map[string]bool{"A3": true, "A4": true, "A5": true, "Letter": true, "Legal": true}

// MaxScale bounds export.scale; it matches render.MaxScale.
const MaxScale = 4

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create it with gt config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Export.Scale <= 0 || c.Export.Scale > MaxScale {
		return fmt.Errorf("config.export.scale must be greater than 0 and at most %d", MaxScale)
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("config.export.jpeg_quality must be between 1 and 100")
	}
	if !pageSizes[c.Export.PageSize] {
		return fmt.Errorf("config.export.page_size %q not supported", c.Export.PageSize)
	}
	if c.Export.FileSuffix == "" {
		return fmt.Errorf("config.export.file_suffix is required")
	}
	if strings.ContainsAny(c.Export.FileSuffix, `/\`) {
		return fmt.Errorf("config.export.file_suffix must not contain path separators")
	}
	if strings.TrimSpace(c.Export.DefaultName) == "" {
		return fmt.Errorf("config.export.default_name is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with '/'")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing
// from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// YAML renders cfg back to YAML.
func (c *Config) YAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const defaultTemplate = `export:
  # device pixels per layout pixel when rasterizing pages
  scale: 1.5
  jpeg_quality: 75
  page_size: A4
  file_suffix: -tracker.pdf
  default_name: goal

journal:
  enabled: true

server:
  addr: 127.0.0.1:8080
  base_path: /v0
`
