package database

import (
	"fmt"
	"time"

	"etech-backend/internal/config"
	"etech-backend/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database, runs auto-migration and sets DB.
func Init(cfg *config.Config, log *zap.Logger) error {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseDSN, gormLogger(cfg.GormLog, log))
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	log.Info("database ready", zap.String("driver", cfg.DatabaseDriver))
	return nil
}

// Open connects with the named driver (postgres or sqlite).
func Open(driver, dsn string, l logger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gcfg := &gorm.Config{}
	if l != nil {
		gcfg.Logger = l
	}
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// one writer at a time; the stock guard relies on serialized transactions
		sqlDB.SetMaxOpenConns(1)
		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA busy_timeout=5000")
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.InventoryItem{},
		&models.SaleRecord{},
		&models.PendingBill{},
		&models.ServiceSale{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func gormLogger(mode string, log *zap.Logger) logger.Interface {
	level := logger.Warn
	switch mode {
	case "off":
		level = logger.Silent
	case "info":
		level = logger.Info
	case "error":
		level = logger.Error
	}
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}
