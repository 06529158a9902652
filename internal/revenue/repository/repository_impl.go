package repository

import (
	"context"

	revenuedomain "github.com/smallbiznis/solara/internal/revenue/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() revenuedomain.Repository {
	return &repo{}
}

func (r *repo) UpsertLines(ctx context.Context, db *gorm.DB, lines []revenuedomain.RevenueLine) error {
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "invoice_ref"}, {Name: "label"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_code", "amount", "currency", "frequency",
			"invoice_total", "credit_amount", "updated_at",
		}),
	}).Create(&lines).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]revenuedomain.RevenueLine, error) {
	var lines []revenuedomain.RevenueLine
	err := db.WithContext(ctx).
		Order("invoice_ref ASC, label ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
