// File: /database/database.go
package database

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"motocosmos-telemetry/models"
)

// Initialize opens the database for the given driver ("mysql" or "sqlite").
func Initialize(driver, databaseURL, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql", "":
		dialector = mysql.Open(databaseURL)
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer; one connection also keeps in-memory databases alive.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate creates the telemetry tables. Catalog and user tables belong to other
// services and are only migrated when includeExternal is set (local runs and tests).
func Migrate(db *gorm.DB, includeExternal bool) error {
	if includeExternal {
		if err := db.AutoMigrate(&models.User{}, &models.Motorcycle{}); err != nil {
			return fmt.Errorf("failed to migrate reference tables: %w", err)
		}
	}

	err := db.AutoMigrate(
		&models.RideSession{},
		&models.TelemetryPoint{},
		&models.RideAnalytics{},
		&models.SafetyEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Stale ride sweeps scan active rides by start time
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_ride_sessions_status_start ON ride_sessions(status, start_time)").Error; err != nil {
		slog.Warn("Could not create index for ride_sessions status", "error", err)
	}

	// Safety events are listed per ride in time order
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_safety_events_ride_ts ON safety_events(ride_id, timestamp)").Error; err != nil {
		slog.Warn("Could not create index for safety_events", "error", err)
	}

	return nil
}
