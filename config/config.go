// Package config loads pipeline configuration from defaults, an optional
// YAML file and LOGFAKER_* environment variables, in that precedence order.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Generator configures the LLM-backed generators.
type Generator struct {
	APIKey      string `koanf:"api_key"`
	Model       string `koanf:"ai_model" validate:"required"`
	MaxResults  int    `koanf:"max_results" validate:"gt=0"`
	Language    string `koanf:"language" validate:"required"`
	ServiceType string `koanf:"service_type" validate:"required"`
	LogLevel    string `koanf:"log_level"`
	// OutputDir is applied to bare output filenames. Inherited from the
	// top-level output_dir when unset.
	OutputDir string `koanf:"output_dir"`
}

// SearchEngine configures the search backend connection.
type SearchEngine struct {
	Engine   string `koanf:"engine" validate:"oneof=elasticsearch solr redisearch"`
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"gt=0"`
	Index    string `koanf:"index" validate:"required"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Config is the full configuration surface of the pipeline.
type Config struct {
	Generator    Generator    `koanf:"generator"`
	SearchEngine SearchEngine `koanf:"search_engine"`
	OutputDir    string       `koanf:"output_dir"`
}

// Addr returns the backend address as host:port.
func (s SearchEngine) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the built-in configuration, matching the defaults the
// pipeline documents.
func Default() *Config {
	return &Config{
		Generator: Generator{
			Model:       "gpt-4o-mini",
			MaxResults:  10,
			Language:    "en",
			ServiceType: "Book search service",
			LogLevel:    "info",
		},
		SearchEngine: SearchEngine{
			Engine: "elasticsearch",
			Host:   "localhost",
			Port:   9200,
			Index:  "library_catalog",
		},
	}
}

// envPrefix is stripped from override variables. A double underscore
// separates nesting levels so keys that themselves contain underscores
// survive the mapping: LOGFAKER_GENERATOR__API_KEY -> generator.api_key.
const envPrefix = "LOGFAKER_"

func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides. The result is validated
// before being returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	if cfg.Generator.OutputDir == "" {
		cfg.Generator.OutputDir = cfg.OutputDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := errors.As(err, &verrs); ok && len(verrs) > 0 {
			return fmt.Errorf("config validation: field %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
