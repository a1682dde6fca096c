// Package database opens the gorm connection the ledger store runs on.
package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cleared-dev/ledger/internal/config"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the database described by cfg and applies pool settings.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if isMemorySQLite(cfg) {
		// every connection to :memory: is a separate database
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if log != nil {
		log.Info("database connection established", zap.String("driver", driverName(cfg)))
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemorySQLite(cfg config.DatabaseConfig) bool {
	return (cfg.Driver == DriverSQLite || cfg.Driver == "") && cfg.DSN == ":memory:"
}

func driverName(cfg config.DatabaseConfig) string {
	if cfg.Driver == "" {
		return DriverSQLite
	}
	return cfg.Driver
}
