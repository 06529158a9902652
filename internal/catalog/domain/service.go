package domain

import (
	"context"
	"errors"
)

// Service exposes the catalog snapshot to the pricing engine and handlers.
// Snapshot never blocks; Reload swaps the snapshot atomically after the new
// catalog validates.
type Service interface {
	Snapshot() *Catalog
	Reload(ctx context.Context) error
}

var (
	ErrCatalogNotLoaded = errors.New("catalog_not_loaded")
)
