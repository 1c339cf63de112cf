package products

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a purchasable bundle of credits.
type Product struct {
	ProductID    string
	Credits      int64
	Price        decimal.NullDecimal
	Currency     string
	IsActive     bool
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Products interface {
	Get(ctx context.Context, q Querier, productID string) (Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	// Upsert reports whether the row was newly created.
	Upsert(ctx context.Context, tx *sql.Tx, p Product) (bool, error)
	// DeactivateExcept marks every active product not in keep as inactive.
	DeactivateExcept(ctx context.Context, tx *sql.Tx, keep []string) (int64, error)
}
