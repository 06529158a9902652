package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contract *Contract) error
	Update(ctx context.Context, db *gorm.DB, contract *Contract) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	List(ctx context.Context, db *gorm.DB) ([]Contract, error)
	ListDue(ctx context.Context, db *gorm.DB, before time.Time) ([]Contract, error)
	UpdateCapacity(ctx context.Context, db *gorm.DB, id snowflake.ID, totalMW float64, siteCount int) error
	UpdateNextInvoiceAt(ctx context.Context, db *gorm.DB, id snowflake.ID, next *time.Time) error
}
