package products

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/creditledger/internal/repos/products"
)

func (r *productsRepo) Upsert(ctx context.Context, tx *sql.Tx, p products.Product) (bool, error) {
	var created bool

	// xmax is zero only for a freshly inserted tuple.
	err := tx.QueryRowContext(ctx, `
		INSERT INTO iap_products (product_id, credits, price, currency, is_active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO UPDATE
		SET credits       = EXCLUDED.credits,
		    price         = EXCLUDED.price,
		    currency      = EXCLUDED.currency,
		    is_active     = EXCLUDED.is_active,
		    display_order = EXCLUDED.display_order,
		    updated_at    = now()
		RETURNING (xmax = 0)
	`,
		p.ProductID, p.Credits, p.Price,
		sql.NullString{String: p.Currency, Valid: p.Currency != ""},
		p.IsActive, p.DisplayOrder,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert product %q: %w", p.ProductID, err)
	}

	return created, nil
}

func (r *productsRepo) DeactivateExcept(ctx context.Context, tx *sql.Tx, keep []string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE iap_products
		SET is_active = false, updated_at = now()
		WHERE is_active
		  AND NOT (product_id = ANY($1))
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("deactivate products: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return n, nil
}
