// Package config loads jobflow configuration from file, environment
// variables and CLI flags. Precedence, highest to lowest: flags, env vars
// (JOBFLOW_ prefix), config file, built-in defaults.
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

// Config file names looked up in the working directory.
const (
	ConfigFileName    = "jobflow.yaml"
	ConfigFileNameAlt = "jobflow.yml"
)

// Default configuration values.
const (
	DefaultBatchSize = 10000
	DefaultWorkers   = 4
	DefaultTarget    = "sqlite"
	DefaultDatabase  = "jobflow.db"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, sqlite

	// File path for sqlite, database name for postgres.
	Database string `koanf:"database"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Config is the full runtime configuration.
type Config struct {
	CSVPath   string        `koanf:"csv_path"`
	BatchSize int           `koanf:"batch_size"`
	Workers   int           `koanf:"workers"`
	Verbose   bool          `koanf:"verbose"`
	Target    *TargetConfig `koanf:"target"`
}

// Load builds the configuration. cfgFile is an explicit config file path;
// when empty, jobflow.yaml or jobflow.yml in the working directory is used
// if present. flags, when non-nil, contributes only explicitly set values.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"batch_size": DefaultBatchSize,
		"workers":    DefaultWorkers,
		"verbose":    false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFile := findConfigFile(cfgFile)
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// JOBFLOW_BATCH_SIZE -> batch_size, JOBFLOW_TARGET__HOST -> target.host
	if err := k.Load(env.Provider("JOBFLOW_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "JOBFLOW_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "csv" {
				return "csv_path", posflag.FlagVal(flags, f)
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

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{}
	}
	cfg.Target.ApplyDefaults()
	expandTargetEnvVars(cfg.Target)

	if err := cfg.Target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target configuration: %w", err)
	}
	return &cfg, nil
}

// findConfigFile resolves the config file to use.
// Priority: explicit path > jobflow.yaml > jobflow.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// ApplyDefaults fills in zero-valued target fields based on the target type.
func (t *TargetConfig) ApplyDefaults() {
	if t.Type == "" {
		t.Type = DefaultTarget
	}
	switch t.Type {
	case "sqlite":
		if t.Database == "" {
			t.Database = DefaultDatabase
		}
	case "postgres":
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
	}
}

// Validate checks that the target configuration is usable.
func (t *TargetConfig) Validate() error {
	switch t.Type {
	case "sqlite":
		return nil
	case "postgres":
		if t.Database == "" {
			return fmt.Errorf("postgres target requires a database name")
		}
		return nil
	default:
		return fmt.Errorf("unknown target type %q (supported: postgres, sqlite)", t.Type)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values,
// leaving unknown references untouched.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in the fields that
// commonly hold credentials or deployment-specific values.
func expandTargetEnvVars(t *TargetConfig) {
	t.Host = expandEnvVars(t.Host)
	t.User = expandEnvVars(t.User)
	t.Password = expandEnvVars(t.Password)
	t.Database = expandEnvVars(t.Database)
}
