package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, rate *ExchangeRate) error
	FindByCurrency(ctx context.Context, db *gorm.DB, currency string) (*ExchangeRate, error)
	List(ctx context.Context, db *gorm.DB) ([]ExchangeRate, error)
}
