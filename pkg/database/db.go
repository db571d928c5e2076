// Package database persists refinement runs and daily usage counters.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arnavshah/roster-refiner/pkg/config"
)

// Store wraps the gorm connection used by the handlers and the CLI
type Store struct {
	DB *gorm.DB
}

// Open connects to Postgres when a URL is configured and to a SQLite file
// otherwise, then migrates the schema.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.URL != "" {
		gormCfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), gormCfg)
	} else {
		path := cfg.Path
		if path == "" {
			path = "roster_runs.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return New(db)
}

// New migrates the schema on an existing connection
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&RunRecord{}, &AssignmentRecord{}, &ViolationRecord{}, &DailyUsage{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
