package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/smallbiznis/solara/internal/contract/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() contractdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contract *contractdomain.Contract) error {
	return db.WithContext(ctx).Create(contract).Error
}

// Update replaces the contract row and its selection rows. Selections are
// small per contract, so delete-and-reinsert keeps override edits simple.
func (r *repo) Update(ctx context.Context, db *gorm.DB, contract *contractdomain.Contract) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", contract.ID).Delete(&contractdomain.ContractModule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", contract.ID).Delete(&contractdomain.ContractAddon{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(contract).Error
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*contractdomain.Contract, error) {
	var contract contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Modules").
		Preload("Addons").
		First(&contract, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]contractdomain.Contract, error) {
	var contracts []contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Modules").
		Preload("Addons").
		Order("created_at DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) UpdateCapacity(ctx context.Context, db *gorm.DB, id snowflake.ID, totalMW float64, siteCount int) error {
	return db.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_mw":   totalMW,
			"site_count": siteCount,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) UpdateNextInvoiceAt(ctx context.Context, db *gorm.DB, id snowflake.ID, next *time.Time) error {
	return db.WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_invoice_at": next,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, before time.Time) ([]contractdomain.Contract, error) {
	var contracts []contractdomain.Contract
	err := db.WithContext(ctx).
		Preload("Modules").
		Preload("Addons").
		Where("status = ?", contractdomain.StatusActive).
		Where("next_invoice_at IS NOT NULL AND next_invoice_at <= ?", before).
		Order("next_invoice_at ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}
