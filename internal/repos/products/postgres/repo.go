package products

import (
	"database/sql"

	"github.com/fastprodman/creditledger/internal/repos/products"
)

var _ products.Products = (*productsRepo)(nil)

const productColumns = `
	product_id, credits, price, currency, is_active, display_order,
	created_at, updated_at`

type productsRepo struct{ db *sql.DB }

func New(db *sql.DB) *productsRepo {
	return &productsRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (products.Product, error) {
	var (
		p        products.Product
		currency sql.NullString
	)

	err := row.Scan(
		&p.ProductID, &p.Credits, &p.Price, &currency, &p.IsActive, &p.DisplayOrder,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return products.Product{}, err
	}

	p.Currency = currency.String

	return p, nil
}
