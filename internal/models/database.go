package models

import (
	"fmt"

	"github.com/helpmarq/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg.Driver, cfg.DSN, logger.Warn)
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// Open connects to the configured database. TranslateError is enabled so
// unique index violations surface as gorm.ErrDuplicatedKey on every driver.
func Open(driver, dsn string, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates every table, including the compound unique indexes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Project{},
		&Reviewer{},
		&Application{},
		&Feedback{},
		&Message{},
		&SchedulerLock{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
