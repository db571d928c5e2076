package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port    string `json:"port"`
	GinMode string `json:"gin_mode"`
}

func (s *ServerConfig) SetDefaults() {
	if s.Port == "" {
		s.Port = "8000"
	}
	if s.GinMode == "" {
		s.GinMode = "release"
	}
}

func (s ServerConfig) Validate() error {
	if p, err := strconv.Atoi(s.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("server.port must be a TCP port, got %q", s.Port)
	}
	switch s.GinMode {
	case "debug", "release", "test":
		return nil
	}
	return fmt.Errorf("server.gin_mode must be debug, release or test, got %q", s.GinMode)
}

// DatabaseConfig selects the run store. URL selects Postgres; otherwise a
// SQLite file at Path is used.
type DatabaseConfig struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

func (d *DatabaseConfig) SetDefaults() {
	if d.Path == "" {
		d.Path = "roster_runs.db"
	}
}

// LoggingConfig defines the minimum log level.
type LoggingConfig struct {
	Level string `json:"level"`
}

func (l *LoggingConfig) SetDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
}

func (l LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(l.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ReportConfig configures the coverage reporter.
type ReportConfig struct {
	MinCoverage float64 `json:"min_coverage"`
}

func (r *ReportConfig) SetDefaults() {
	if r.MinCoverage == 0 {
		r.MinCoverage = 80
	}
}

func (r ReportConfig) Validate() error {
	if r.MinCoverage < 0 || r.MinCoverage > 100 {
		return fmt.Errorf("report.min_coverage must be within [0, 100], got %g", r.MinCoverage)
	}
	return nil
}
