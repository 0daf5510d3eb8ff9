// Package config loads the importer configuration from embedded defaults
// with optional YAML file overrides.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var embeddedDefaults []byte

// Limits bound interactions with the external store. They are properties
// of the store's API, exposed as configuration so the core stays portable
// to a different storage collaborator.
type Limits struct {
	// ExistsChunkSize caps the number of fingerprints per existence query
	ExistsChunkSize int `yaml:"exists_chunk_size"`
	// WriteBatchSize caps the number of records per atomic write batch
	WriteBatchSize int `yaml:"write_batch_size"`
}

// Collections names the store collections per record kind
type Collections struct {
	Transactions string `yaml:"transactions"`
	Balances     string `yaml:"balances"`
	Accounts     string `yaml:"accounts"`
	Categories   string `yaml:"categories"`
	Entries      string `yaml:"entries"`
	Sessions     string `yaml:"sessions"`
}

// Config is the full importer configuration
type Config struct {
	ProjectID   string      `yaml:"project_id"`
	ListenAddr  string      `yaml:"listen_addr"`
	Collections Collections `yaml:"collections"`
	Limits      Limits      `yaml:"limits"`
}

// LoadEmbedded returns the built-in default configuration
func LoadEmbedded() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(embeddedDefaults, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedded defaults are invalid: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile loads the defaults and overlays the YAML file on top.
// Fields absent from the file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := LoadEmbedded()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s is invalid: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration invariants
func (c *Config) Validate() error {
	if c.Limits.ExistsChunkSize <= 0 {
		return fmt.Errorf("limits.exists_chunk_size must be positive, got %d", c.Limits.ExistsChunkSize)
	}
	if c.Limits.WriteBatchSize <= 0 {
		return fmt.Errorf("limits.write_batch_size must be positive, got %d", c.Limits.WriteBatchSize)
	}

	named := map[string]string{
		"collections.transactions": c.Collections.Transactions,
		"collections.balances":     c.Collections.Balances,
		"collections.accounts":     c.Collections.Accounts,
		"collections.categories":   c.Collections.Categories,
		"collections.entries":      c.Collections.Entries,
		"collections.sessions":     c.Collections.Sessions,
	}
	for field, value := range named {
		if value == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
	}
	return nil
}
