// Package config loads the recognized pathway core options (§6.5):
// db_path, api_key, max_payload_size, session_id_max_length. Enforcement of
// api_key and max_payload_size on write endpoints is the external HTTP
// collaborator's job; the core only carries the values through so every
// collaborator reads them from one place.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxPayloadSize     = 1 << 20 // 1 MiB
	defaultSessionIDMaxLength = 128
)

// Config holds the options recognized by the core.
type Config struct {
	DBPath             string `yaml:"db_path"`
	APIKey             string `yaml:"api_key,omitempty"`
	MaxPayloadSize     int    `yaml:"max_payload_size"`
	SessionIDMaxLength int    `yaml:"session_id_max_length"`
}

// Default returns a Config with an in-memory store and the documented
// defaults for size limits.
func Default() Config {
	return Config{
		DBPath:             ":memory:",
		MaxPayloadSize:     defaultMaxPayloadSize,
		SessionIDMaxLength: defaultSessionIDMaxLength,
	}
}

// Load reads a YAML config file at path, applying defaults for any field
// left unset.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if cfg.MaxPayloadSize == 0 {
		cfg.MaxPayloadSize = defaultMaxPayloadSize
	}
	if cfg.SessionIDMaxLength == 0 {
		cfg.SessionIDMaxLength = defaultSessionIDMaxLength
	}
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	return cfg, nil
}
