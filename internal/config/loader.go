package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix marks environment variables read as configuration.
// SCHEMA_MINER_SOURCE__DSN sets source.dsn.
const EnvPrefix = "SCHEMA_MINER_"

// DefaultFiles are searched in the working directory when no --config is given.
var DefaultFiles = []string{"schema-miner.yaml", "schema-miner.yml"}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"source":               "source.type",
	"path":                 "source.path",
	"dsn":                  "source.dsn",
	"schema":               "source.schema",
	"tables":               "source.tables",
	"row-limit":            "source.row_limit",
	"strictness":           "mining.type_strictness",
	"workers":              "mining.workers",
	"tolerance":            "filter.tolerance",
	"decisions":            "review.decisions_file",
	"min-reverse-strength": "review.min_reverse_strength",
	"discard-weak-reverse": "review.discard_weak_reverse",
	"prune":                "graph.prune_redundant",
	"resolve-multi-parent": "graph.resolve_multi_parent",
	"out":                  "output.dir",
	"format":               "output.formats",
	"log-level":            "log.level",
	"log-format":           "log.format",
}

// Loaded is a resolved configuration and where it came from.
type Loaded struct {
	*Config
	File string // config file read, empty when none
}

// Load resolves configuration. Precedence (highest first): flags that were
// explicitly set, environment, config file, defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Source.DSN = expandEnvVars(cfg.Source.DSN)
	cfg.Source.Type = strings.ToLower(cfg.Source.Type)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Loaded{Config: &cfg, File: path}, nil
}

// envKey turns SCHEMA_MINER_REVIEW__DECISIONS_FILE into review.decisions_file.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with its value, leaving unknown variables as is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}
