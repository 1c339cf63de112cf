package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.toml")

	err := os.WriteFile(path, []byte(body), 0o600)
	if err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
		check   func(t *testing.T, f File)
	}{
		{
			name: "string_and_float_prices",
			body: `
[[product]]
product_id    = "credits.10"
credits       = 10
price         = "0.99"
currency      = "usd"
display_order = 1

[[product]]
product_id = "credits.50"
credits    = 50
price      = 3.99
currency   = "USD"
active     = false
`,
			check: func(t *testing.T, f File) {
				t.Helper()

				if len(f.Products) != 2 {
					t.Fatalf("want 2 products, got %d", len(f.Products))
				}

				p := f.Products[0].Product()
				if !p.Price.Valid || !p.Price.Decimal.Equal(decimal.RequireFromString("0.99")) {
					t.Fatalf("price: got %v", p.Price)
				}
				if p.Currency != "USD" || !p.IsActive {
					t.Fatalf("unexpected product %+v", p)
				}

				p = f.Products[1].Product()
				if !p.Price.Decimal.Equal(decimal.RequireFromString("3.99")) || p.IsActive {
					t.Fatalf("unexpected product %+v", p)
				}
			},
		},
		{
			name: "price_optional",
			body: `
[[product]]
product_id = "credits.free"
credits    = 5
`,
			check: func(t *testing.T, f File) {
				t.Helper()

				if f.Products[0].Product().Price.Valid {
					t.Fatalf("price must be null when omitted")
				}
			},
		},
		{
			name:    "empty",
			body:    "",
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "unknown_key",
			body: `
[[product]]
product_id = "credits.10"
credits    = 10
colour     = "red"
`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "non_positive_credits",
			body: `
[[product]]
product_id = "credits.0"
credits    = 0
`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "duplicate_ids",
			body: `
[[product]]
product_id = "credits.10"
credits    = 10

[[product]]
product_id = "credits.10"
credits    = 11
`,
			wantErr: ErrInvalidCatalog,
		},
		{
			name: "price_without_currency",
			body: `
[[product]]
product_id = "credits.10"
credits    = 10
price      = "0.99"
`,
			wantErr: ErrInvalidCatalog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := LoadFile(writeCatalog(t, tt.body))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("load: %v", err)
			}

			tt.check(t, f)
		})
	}
}

func TestLoadFile_BadSyntax(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(writeCatalog(t, "[[product]\nproduct_id ="))
	if err == nil {
		t.Fatalf("expected decode error")
	}

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
