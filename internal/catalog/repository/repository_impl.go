package repository

import (
	"context"

	"github.com/smallbiznis/solara/internal/catalog/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) ListPackages(ctx context.Context, db *gorm.DB) ([]domain.CatalogPackage, error) {
	var rows []domain.CatalogPackage
	err := db.WithContext(ctx).Order("code asc").Find(&rows).Error
	return rows, err
}

func (r *repository) ListModules(ctx context.Context, db *gorm.DB) ([]domain.CatalogModule, error) {
	var rows []domain.CatalogModule
	err := db.WithContext(ctx).Order("code asc").Find(&rows).Error
	return rows, err
}

func (r *repository) ListAddons(ctx context.Context, db *gorm.DB) ([]domain.CatalogAddon, error) {
	var rows []domain.CatalogAddon
	err := db.WithContext(ctx).Order("code asc").Find(&rows).Error
	return rows, err
}

func (r *repository) ListTiers(ctx context.Context, db *gorm.DB, kind domain.TierTableKind) ([]domain.CatalogTier, error) {
	var rows []domain.CatalogTier
	err := db.WithContext(ctx).Where("table_kind = ?", kind).Order("min_mw asc").Find(&rows).Error
	return rows, err
}

func (r *repository) ListAccountMappings(ctx context.Context, db *gorm.DB) ([]domain.AccountMapping, error) {
	var rows []domain.AccountMapping
	err := db.WithContext(ctx).Find(&rows).Error
	return rows, err
}
