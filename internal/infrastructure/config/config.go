// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
)

const (
	// DefaultConfigDir is the directory name for pidrel configuration.
	DefaultConfigDir = ".pidrel"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDBFile is the default SQLite database file name.
	DefaultDBFile = "relations.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite        SQLiteConfig            `yaml:"sqlite,omitempty"`
	RelationTypes []entities.RelationType `yaml:"relation_types,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// Default returns a Config with the stock relation types.
func Default() *Config {
	return &Config{
		RelationTypes: []entities.RelationType{
			{ID: 0, Name: "version", Label: "Version", Ordered: true},
			{ID: 1, Name: "collection", Label: "Collection", Ordered: false},
		},
	}
}

// Load loads configuration from the .pidrel directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'pidrel init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that the declared relation types are usable.
func (c *Config) validate() error {
	byID := make(map[int]string, len(c.RelationTypes))
	byName := make(map[string]bool, len(c.RelationTypes))
	for _, rt := range c.RelationTypes {
		if rt.Name == "" {
			return fmt.Errorf("relation type %d has no name", rt.ID)
		}
		if other, ok := byID[rt.ID]; ok {
			return fmt.Errorf("relation types %q and %q share id %d", other, rt.Name, rt.ID)
		}
		if byName[rt.Name] {
			return fmt.Errorf("duplicate relation type name %q", rt.Name)
		}
		byID[rt.ID] = rt.Name
		byName[rt.Name] = true
	}
	return nil
}

// RelationTypeByName returns the declared relation type with the given name.
func (c *Config) RelationTypeByName(name string) (entities.RelationType, error) {
	for _, rt := range c.RelationTypes {
		if rt.Name == name {
			return rt, nil
		}
	}
	return entities.RelationType{}, fmt.Errorf("unknown relation type: %s", name)
}

// RelationTypeByID returns the declared relation type with the given id.
func (c *Config) RelationTypeByID(id int) (entities.RelationType, error) {
	for _, rt := range c.RelationTypes {
		if rt.ID == id {
			return rt, nil
		}
	}
	return entities.RelationType{}, fmt.Errorf("unknown relation type id: %d", id)
}

// ConfigDir returns the path to the .pidrel config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SQLitePath returns the database path, falling back to the default
// location under the config directory when none is configured.
func (c *Config) SQLitePath(basePath string) string {
	if c.SQLite.Path != "" {
		return c.SQLite.Path
	}
	return filepath.Join(basePath, DefaultConfigDir, DefaultDBFile)
}
