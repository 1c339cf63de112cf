package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/creditledger/internal/repos/products"
)

func (r *productsRepo) Get(ctx context.Context, q products.Querier, productID string) (products.Product, error) {
	p, err := scanProduct(q.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM iap_products
		WHERE product_id = $1
	`, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrProductNotFound
		}

		return products.Product{}, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

func (r *productsRepo) ListActive(ctx context.Context) ([]products.Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM iap_products
		WHERE is_active
		ORDER BY display_order, product_id
	`)
}

func (r *productsRepo) ListAll(ctx context.Context) ([]products.Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM iap_products
		ORDER BY display_order, product_id
	`)
}

func (r *productsRepo) list(ctx context.Context, query string) ([]products.Product, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []products.Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return out, nil
}
