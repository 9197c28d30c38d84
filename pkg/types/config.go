// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// OutputFormat selects the encoding of written graphs and exports.
type OutputFormat string

const (
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
)

// MappingConfig holds settings for turning raw model text into graphs.
type MappingConfig struct {
	// OutputDir is where `claimgraph map` writes <name>-graph files.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir" validate:"required"`

	// Format selects yaml or json graph files.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=yaml json"`

	// Workers bounds how many inputs are mapped in parallel (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=64"`

	// CacheTTL is how long a normalized round stays memoized by content hash.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl" validate:"gte=0"`
}

// SessionConfig holds settings for the traversal session store.
type SessionConfig struct {
	// Dir contains the SQLite database (sessions.db) and exports.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`

	// MaxResults caps `session list` output (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=0"`
}

// Config groups all claimgraph settings.
type Config struct {
	Mapping MappingConfig `json:"mapping" yaml:"mapping" mapstructure:"mapping"`
	Session SessionConfig `json:"session" yaml:"session" mapstructure:"session"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Mapping: MappingConfig{
			OutputDir: "graphs",
			Format:    OutputYAML,
			Workers:   4,
			CacheTTL:  10 * time.Minute,
		},
		Session: SessionConfig{
			Dir:        "sessions",
			MaxResults: 50,
		},
	}
}

var configValidate = validator.New()

// Validate checks every field constraint and reports all violations at once.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %v", msgs)
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
