package database

import (
	"fmt"

	"github.com/devicelink/core/internal/config"
	"github.com/devicelink/core/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and runs auto-migration.
func Connect(cfg *config.AppConfig) (*gorm.DB, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

// OpenSQLite opens an sqlite database at path and migrates it. Used by tools and tests.
func OpenSQLite(path string) (*gorm.DB, error) {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = path
	return Connect(cfg)
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	if cfg.Env == "test" {
		return logger.Silent
	}
	return logger.Warn
}

func open(cfg *config.AppConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		dialector = mysql.New(mysql.Config{
			DSN:               cfg.Database.DSNValue(),
			DefaultStringSize: 191,
		})
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(resolveLogLevel(cfg)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if cfg.Database.Driver == config.DriverSQLite {
		// sqlite allows one writer; a single connection also keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("resolve sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
