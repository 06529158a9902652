package repository

import (
	"context"
	"errors"

	currencydomain "github.com/smallbiznis/solara/internal/currency/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() currencydomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, rate *currencydomain.ExchangeRate) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate_per_eur", "updated_at"}),
	}).Create(rate).Error
}

func (r *repo) FindByCurrency(ctx context.Context, db *gorm.DB, currency string) (*currencydomain.ExchangeRate, error) {
	var rate currencydomain.ExchangeRate
	err := db.WithContext(ctx).
		Where("currency = ?", currency).
		First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]currencydomain.ExchangeRate, error) {
	var rates []currencydomain.ExchangeRate
	err := db.WithContext(ctx).
		Order("currency ASC").
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}
