// Package config loads schema-miner settings from defaults, a YAML file,
// SCHEMA_MINER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"schema-miner/internal/adapter"
	"schema-miner/internal/relation"
)

// Output formats written by the scan command.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
)

// Config holds every setting of a run.
type Config struct {
	Source SourceConfig `koanf:"source"`
	Mining MiningConfig `koanf:"mining"`
	Filter FilterConfig `koanf:"filter"`
	Review ReviewConfig `koanf:"review"`
	Graph  GraphConfig  `koanf:"graph"`
	Output OutputConfig `koanf:"output"`
	Log    LogConfig    `koanf:"log"`
}

// SourceConfig selects the dataset.
type SourceConfig struct {
	Type     string   `koanf:"type"`
	Path     string   `koanf:"path"`
	DSN      string   `koanf:"dsn"`
	Schema   string   `koanf:"schema"`
	Tables   []string `koanf:"tables"`
	RowLimit int      `koanf:"row_limit"`
}

type MiningConfig struct {
	TypeStrictness string `koanf:"type_strictness"`
	Workers        int    `koanf:"workers"`
}

type FilterConfig struct {
	Tolerance float64 `koanf:"tolerance"`
}

type ReviewConfig struct {
	DecisionsFile      string  `koanf:"decisions_file"`
	MinReverseStrength float64 `koanf:"min_reverse_strength"`
	DiscardWeakReverse bool    `koanf:"discard_weak_reverse"`
}

type GraphConfig struct {
	PruneRedundant     bool `koanf:"prune_redundant"`
	ResolveMultiParent bool `koanf:"resolve_multi_parent"`
}

type OutputConfig struct {
	Dir     string   `koanf:"dir"`
	Formats []string `koanf:"formats"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaults are flattened koanf keys.
func defaults() map[string]any {
	return map[string]any{
		"source.type":                 adapter.SourceCSV,
		"source.path":                 ".",
		"source.row_limit":            0,
		"mining.type_strictness":      string(adapter.StrictExact),
		"mining.workers":              0,
		"filter.tolerance":            relation.DefaultTolerance,
		"review.min_reverse_strength": relation.DefaultMinReverseStrength,
		"review.discard_weak_reverse": false,
		"graph.prune_redundant":       true,
		"graph.resolve_multi_parent":  true,
		"output.dir":                  "schema-miner-out",
		"output.formats":              []string{FormatJSON, FormatMarkdown, FormatMermaid},
		"log.level":                   "info",
		"log.format":                  "console",
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source.Type {
	case adapter.SourceCSV, adapter.SourceParquet, adapter.SourceSQLite:
		if c.Source.Path == "" {
			errs = append(errs, fmt.Errorf("source.path is required for %s sources", c.Source.Type))
		}
	case adapter.SourceMySQL, adapter.SourceSQLServer, adapter.SourcePostgres:
		if c.Source.DSN == "" {
			errs = append(errs, fmt.Errorf("source.dsn is required for %s sources", c.Source.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("source.type %q is not one of csv, parquet, mysql, sqlserver, postgres, sqlite", c.Source.Type))
	}
	if c.Source.RowLimit < 0 {
		errs = append(errs, errors.New("source.row_limit must not be negative"))
	}

	if _, err := adapter.ParseStrictness(c.Mining.TypeStrictness); err != nil {
		errs = append(errs, fmt.Errorf("mining.type_strictness: %w", err))
	}
	if c.Mining.Workers < 0 {
		errs = append(errs, errors.New("mining.workers must not be negative"))
	}

	if c.Filter.Tolerance < 0 || c.Filter.Tolerance >= 1 {
		errs = append(errs, fmt.Errorf("filter.tolerance %v must be in [0, 1)", c.Filter.Tolerance))
	}
	if c.Review.MinReverseStrength < 0 || c.Review.MinReverseStrength > 1 {
		errs = append(errs, fmt.Errorf("review.min_reverse_strength %v must be in [0, 1]", c.Review.MinReverseStrength))
	}

	for _, f := range c.Output.Formats {
		switch f {
		case FormatJSON, FormatMarkdown, FormatMermaid:
		default:
			errs = append(errs, fmt.Errorf("output.formats: unknown format %q", f))
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be console or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Strictness returns the parsed mining.type_strictness.
func (c *Config) Strictness() adapter.Strictness {
	s, err := adapter.ParseStrictness(c.Mining.TypeStrictness)
	if err != nil {
		return adapter.StrictExact
	}
	return s
}

// WantsFormat reports whether output.formats lists f.
func (c *Config) WantsFormat(f string) bool {
	for _, want := range c.Output.Formats {
		if want == f {
			return true
		}
	}
	return false
}

// LoaderConfig converts the source section for adapter.New.
func (s SourceConfig) LoaderConfig() adapter.SourceConfig {
	return adapter.SourceConfig{
		Type:     s.Type,
		Path:     s.Path,
		DSN:      s.DSN,
		Schema:   s.Schema,
		Tables:   append([]string(nil), s.Tables...),
		RowLimit: s.RowLimit,
	}
}
