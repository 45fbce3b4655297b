package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

type catalogEntry struct {
	Ref    string          `json:"ref"`
	Name   string          `json:"name"`
	Unit   string          `json:"unit"`
	Price  decimal.Decimal `json:"price"`
	Active *bool           `json:"active"`
}

// LoadCatalogFile upserts every product listed in a JSON array file.
func LoadCatalogFile(ctx context.Context, catalog repository.CatalogRepository, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}

	var entries []catalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("decode catalog: %w", err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Ref) == "" || strings.TrimSpace(e.Name) == "" {
			return i, fmt.Errorf("catalog entry %d: ref and name are required", i)
		}
		if e.Price.IsNegative() {
			return i, fmt.Errorf("catalog entry %s: negative price", e.Ref)
		}
		product := model.Product{
			Ref:    e.Ref,
			Name:   e.Name,
			Unit:   e.Unit,
			Price:  e.Price,
			Active: e.Active == nil || *e.Active,
		}
		if product.Unit == "" {
			product.Unit = "pcs"
		}
		if err := catalog.Upsert(ctx, product); err != nil {
			return i, fmt.Errorf("store product %s: %w", e.Ref, err)
		}
	}
	return len(entries), nil
}
