// Package migration creates the billing schema on startup so the service is
// usable out of the box for local and self-hosted environments.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/solara/internal/invoice/domain"
	revenuedomain "github.com/smallbiznis/solara/internal/revenue/domain"
)

// RunMigrations applies the embedded SQL migrations against postgres.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate covers the non-postgres dialects (sqlite/mysql dev setups)
// where the embedded SQL is postgres-specific.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalogdomain.CatalogPackage{},
		&catalogdomain.CatalogModule{},
		&catalogdomain.CatalogAddon{},
		&catalogdomain.CatalogTier{},
		&catalogdomain.AccountMapping{},
		&contractdomain.Contract{},
		&contractdomain.ContractModule{},
		&contractdomain.ContractAddon{},
		&invoicedomain.Invoice{},
		&currencydomain.ExchangeRate{},
		&revenuedomain.RevenueLine{},
	)
}
