package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	UpsertLines(ctx context.Context, db *gorm.DB, lines []RevenueLine) error
	List(ctx context.Context, db *gorm.DB) ([]RevenueLine, error)
}
