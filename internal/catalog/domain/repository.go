package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListPackages(ctx context.Context, db *gorm.DB) ([]CatalogPackage, error)
	ListModules(ctx context.Context, db *gorm.DB) ([]CatalogModule, error)
	ListAddons(ctx context.Context, db *gorm.DB) ([]CatalogAddon, error)
	ListTiers(ctx context.Context, db *gorm.DB, kind TierTableKind) ([]CatalogTier, error)
	ListAccountMappings(ctx context.Context, db *gorm.DB) ([]AccountMapping, error)
}
