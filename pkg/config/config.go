package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arnavshah/roster-refiner/pkg/models"
	"github.com/arnavshah/roster-refiner/pkg/refinement"
)

// EnvPrefix marks environment overrides; "__" separates nested keys, as in
// ROSTER_REFINEMENT__MAX_ITERATIONS=5.
const EnvPrefix = "ROSTER_"

type Config struct {
	Server      ServerConfig         `json:"server"`
	Database    DatabaseConfig       `json:"database"`
	Logging     LoggingConfig        `json:"logging"`
	Refinement  refinement.Config    `json:"refinement"`
	Report      ReportConfig         `json:"report"`
	HorizonDays int                  `json:"horizon_days"`
	Constraints models.ConstraintSet `json:"constraints"`
}

// Load reads an optional JSON or YAML file, applies ROSTER_ environment
// overrides and the legacy PORT, GIN_MODE, DATABASE_URL and DATA_PATH
// variables, then fills defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.applyLegacyEnv()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration built from defaults and the environment only.
func Default() (*Config, error) {
	return Load("")
}

func (c *Config) applyLegacyEnv() {
	if c.Server.Port == "" {
		c.Server.Port = os.Getenv("PORT")
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = os.Getenv("GIN_MODE")
	}
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
	if c.Database.Path == "" {
		c.Database.Path = os.Getenv("DATA_PATH")
	}
}

// SetDefaults fills every section's zero values.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Database.SetDefaults()
	c.Logging.SetDefaults()
	c.Refinement.SetDefaults()
	c.Report.SetDefaults()
	if c.HorizonDays == 0 {
		c.HorizonDays = models.DefaultHorizonDays
	}
	c.Constraints.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Refinement.Validate(); err != nil {
		return err
	}
	if err := c.Report.Validate(); err != nil {
		return err
	}
	if c.HorizonDays < 1 || c.HorizonDays > 366 {
		return fmt.Errorf("horizon_days must be within [1, 366], got %d", c.HorizonDays)
	}
	return c.Constraints.Validate()
}
