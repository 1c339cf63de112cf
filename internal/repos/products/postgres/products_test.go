package products

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/creditledger/internal/infra/pgtestutil"
	"github.com/fastprodman/creditledger/internal/repos/products"
)

func TestProducts_Get(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedProduct(t, db, "credits.10", 10, true)
	pgtestutil.SeedProduct(t, db, "credits.500", 500, false)

	repo := New(db)

	tests := []struct {
		name       string
		productID  string
		wantActive bool
		wantErr    error
	}{
		{name: "active", productID: "credits.10", wantActive: true},
		{name: "inactive_still_found", productID: "credits.500", wantActive: false},
		{name: "missing", productID: "credits.nope", wantErr: products.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := repo.Get(t.Context(), db, tt.productID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if p.IsActive != tt.wantActive {
				t.Fatalf("active: want %v, got %v", tt.wantActive, p.IsActive)
			}

			if !p.Price.Valid || !p.Price.Decimal.Equal(decimal.RequireFromString("1.99")) {
				t.Fatalf("price: want 1.99, got %v", p.Price)
			}
		})
	}
}

func TestProducts_UpsertListAndDeactivate(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := t.Context()

	upsertAll := func(ps ...products.Product) []bool {
		t.Helper()

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin tx: %v", err)
		}
		defer func() { _ = tx.Rollback() }()

		created := make([]bool, 0, len(ps))

		for _, p := range ps {
			c, err := repo.Upsert(ctx, tx, p)
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}
			created = append(created, c)
		}

		err = tx.Commit()
		if err != nil {
			t.Fatalf("commit: %v", err)
		}

		return created
	}

	price := decimal.NewNullDecimal(decimal.RequireFromString("3.99"))

	created := upsertAll(
		products.Product{ProductID: "b", Credits: 50, Price: price, Currency: "USD", IsActive: true, DisplayOrder: 2},
		products.Product{ProductID: "a", Credits: 10, IsActive: true, DisplayOrder: 1},
		products.Product{ProductID: "c", Credits: 100, IsActive: true, DisplayOrder: 3},
	)
	if !created[0] || !created[1] || !created[2] {
		t.Fatalf("first upsert should create all rows, got %v", created)
	}

	created = upsertAll(products.Product{ProductID: "a", Credits: 12, IsActive: true, DisplayOrder: 1})
	if created[0] {
		t.Fatalf("second upsert of same id must update, not create")
	}

	a, err := repo.Get(ctx, db, "a")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if a.Credits != 12 || a.Price.Valid || a.Currency != "" {
		t.Fatalf("unexpected a after update: %+v", a)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	n, err := repo.DeactivateExcept(ctx, tx, []string{"a", "b"})
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("deactivate: %v", err)
	}
	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if n != 1 {
		t.Fatalf("deactivated: want 1, got %d", n)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if got := ids(active); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("active order: want [a b], got %v", got)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("deactivation must not delete rows, got %d", len(all))
	}
}

func TestProducts_GetInsideTx(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedProduct(t, db, "credits.10", 10, true)

	var q products.Querier

	tx, err := db.BeginTx(t.Context(), &sql.TxOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	q = tx

	p, err := New(db).Get(t.Context(), q, "credits.10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Credits != 10 {
		t.Fatalf("credits: want 10, got %d", p.Credits)
	}
}

func ids(ps []products.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ProductID)
	}
	return out
}
