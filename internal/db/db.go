package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"room-reservation-backend/config"
	"room-reservation-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := applyOccupancyIndex(db); err != nil {
		return nil, err
	}

	if cfg.EnableConstraints && db.Dialector.Name() == "postgres" {
		log.Println("Exclusion constraints are enabled, applying PostgreSQL-specific DDL...")
		if err := applyExclusionDDL(db); err != nil {
			log.Printf("Warning: failed to apply exclusion constraint: %v. Continuing with application-level locking only.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates or updates every table of the reservation schema.
func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Branch{},
		&model.Building{},
		&model.RoomType{},
		&model.Room{},
		&model.Order{},
		&model.UsedRoom{},
		&model.CancelRecord{},
		&model.Report{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func logLevel(level string) logger.LogLevel {
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

// applyOccupancyIndex enforces "one open occupancy per user" in storage.
// Both sqlite and postgres support partial unique indexes.
func applyOccupancyIndex(db *gorm.DB) error {
	ddl := "CREATE UNIQUE INDEX IF NOT EXISTS idx_used_rooms_one_open_per_user " +
		"ON used_rooms (user_id) WHERE checkout_at IS NULL;"
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("DDL failed on %q: %w", ddl, err)
	}
	return nil
}

func applyExclusionDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE orders DROP CONSTRAINT IF EXISTS orders_interval_valid;",
		"ALTER TABLE orders ADD CONSTRAINT orders_interval_valid CHECK (begin_minute < end_minute);",

		// Two blocking orders of one room never overlap on the same date; '[)' keeps touching slots legal.
		"ALTER TABLE orders DROP CONSTRAINT IF EXISTS orders_no_overlap;",
		"ALTER TABLE orders ADD CONSTRAINT orders_no_overlap EXCLUDE USING GIST (" +
			"room_id WITH =, date WITH =, int4range(begin_minute, end_minute, '[)') WITH &&" +
			") WHERE (status IN ('active', 'used'));",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
