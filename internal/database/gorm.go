package database

import (
	"errors"
	"fmt"
	"log"
	"log/slog"

	"whatsapp-crm-gateway/internal/config"
	"whatsapp-crm-gateway/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var GormDB *gorm.DB

// Open connects with the configured driver and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	if err := db.AutoMigrate(&models.Tenant{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return db, nil
}

func InitGorm(cfg *config.Config) {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	GormDB = db
	slog.Info("database ready", "driver", cfg.DBDriver)
}

// SeedDefaultTenant keeps the default tenant and the environment in step.
// A stored tenant is left as is, since the tenant store resolves gateways
// from the database. Otherwise the environment credentials are saved as the
// default tenant.
func SeedDefaultTenant(db *gorm.DB, cfg *config.Config) error {
	var tenant models.Tenant
	err := db.Where("id = ?", cfg.DefaultTenant).First(&tenant).Error
	switch {
	case err == nil:
		slog.Info("default tenant loaded from database",
			"tenant", tenant.ID, "base_url", tenant.BaseURL, "instance", tenant.InstanceID)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("load default tenant: %w", err)
	}

	if cfg.ProviderBaseURL == "" {
		slog.Warn("no provider configured for the default tenant", "tenant", cfg.DefaultTenant)
		return nil
	}
	tenant = models.Tenant{
		ID:         cfg.DefaultTenant,
		Name:       cfg.DefaultTenant,
		BaseURL:    cfg.ProviderBaseURL,
		Token:      cfg.ProviderToken,
		InstanceID: cfg.ProviderInstance,
		Enabled:    true,
	}
	if err := db.Create(&tenant).Error; err != nil {
		return fmt.Errorf("seed default tenant: %w", err)
	}
	slog.Info("default tenant seeded from environment", "tenant", tenant.ID)
	return nil
}

// CopyTenants upserts every tenant of src into dst, so re-running a
// migration after a partial failure is safe.
func CopyTenants(src, dst *gorm.DB) (int, error) {
	var tenants []models.Tenant
	if err := src.Find(&tenants).Error; err != nil {
		return 0, fmt.Errorf("read tenants: %w", err)
	}
	if len(tenants) == 0 {
		return 0, nil
	}
	err := dst.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&tenants).Error
	})
	if err != nil {
		return 0, fmt.Errorf("write tenants: %w", err)
	}
	return len(tenants), nil
}
