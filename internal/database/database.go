package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and verifies it answers a ping.
// A failure here means the process must not start serving.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// One writer keeps sqlite from returning SQLITE_BUSY under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	slog.Info("database connected", "driver", cfg.DBDriver)
	return db, nil
}

// Migrate creates or updates the tables the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Application{},
		&models.SystemLog{},
	); err != nil {
		return err
	}
	return backfillIdentityKeys(db)
}

// backfillIdentityKeys fills company_key/position_key on rows written
// before those columns existed.
func backfillIdentityKeys(db *gorm.DB) error {
	var apps []models.Application
	if err := db.Where("company_key IS NULL OR position_key IS NULL").Find(&apps).Error; err != nil {
		return fmt.Errorf("load rows without identity keys: %w", err)
	}
	for i := range apps {
		apps[i].SetIdentityKeys()
		if err := db.Model(&models.Application{}).Where("id = ?", apps[i].ID).Updates(map[string]interface{}{
			"company_key":  apps[i].CompanyKey,
			"position_key": apps[i].PositionKey,
		}).Error; err != nil {
			return fmt.Errorf("backfill identity keys for %s: %w", apps[i].ID, err)
		}
	}
	if len(apps) > 0 {
		slog.Info("identity keys backfilled", "rows", len(apps))
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
