package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	// List returns invoices in descending sequence order, starting below
	// beforeSeq when it is positive.
	List(ctx context.Context, db *gorm.DB, beforeSeq int64, limit int) ([]Invoice, error)
	// NextSeq returns the next monotonic invoice sequence.
	NextSeq(ctx context.Context, db *gorm.DB) (int64, error)
}
