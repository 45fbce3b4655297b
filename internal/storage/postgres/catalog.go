package postgres

import (
	"context"

	"github.com/samber/lo"

	"github.com/polkiloo/checkout/internal/domain/model"
)

type catalogRepository struct {
	storage *Storage
}

// GetByRefs returns the known products keyed by ref. Missing refs are absent from the map.
func (r *catalogRepository) GetByRefs(ctx context.Context, refs []string) (map[string]model.Product, error) {
	const query = `SELECT ref, name, unit, price::text, active FROM products WHERE ref = ANY($1)`
	result := make(map[string]model.Product, len(refs))
	if len(refs) == 0 {
		return result, nil
	}

	rows, err := r.storage.pool.Query(ctx, query, lo.Uniq(refs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.Ref, &p.Name, &p.Unit, &p.Price, &p.Active); err != nil {
			return nil, err
		}
		result[p.Ref] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert stores or replaces a catalog entry.
func (r *catalogRepository) Upsert(ctx context.Context, p model.Product) error {
	const query = `INSERT INTO products (ref, name, unit, price, active) VALUES ($1, $2, $3, $4, $5)
                   ON CONFLICT (ref) DO UPDATE SET name=EXCLUDED.name, unit=EXCLUDED.unit, price=EXCLUDED.price, active=EXCLUDED.active`
	_, err := r.storage.pool.Exec(ctx, query, p.Ref, p.Name, p.Unit, p.Price.StringFixed(2), p.Active)
	return err
}
