package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"smartcontract-gateway.backend/internal/config"
	"smartcontract-gateway.backend/internal/infrastructure/models"
)

var (
	sqlOpen  = sql.Open
	dbPing   = func(db *sql.DB) error { return db.Ping() }
	gormOpen = func(sqlDB *sql.DB) (*gorm.DB, error) {
		return gorm.Open(gormpostgres.New(gormpostgres.Config{
			Conn:                 sqlDB,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
)

// NewConnection opens and verifies a PostgreSQL connection
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	sqlDB, err := sqlOpen("postgres", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := dbPing(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gormOpen(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the registry tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SmartContract{}, &models.ContractTransaction{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
