package repository

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// CatalogRepository resolves current product data for checkout.
type CatalogRepository interface {
	GetByRefs(ctx context.Context, refs []string) (map[string]model.Product, error)
	Upsert(ctx context.Context, product model.Product) error
}
