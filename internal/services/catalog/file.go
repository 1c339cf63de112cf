// Package catalog loads the product catalog from a TOML file and applies it
// to the database.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/creditledger/internal/repos/products"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// File mirrors the catalog file:
//
//	[[product]]
//	product_id    = "com.photostyle.credits.10"
//	credits       = 10
//	price         = "0.99"
//	currency      = "USD"
//	display_order = 1
type File struct {
	Products []Entry `toml:"product"`
}

type Entry struct {
	ProductID    string           `toml:"product_id"`
	Credits      int64            `toml:"credits"`
	Price        *decimal.Decimal `toml:"price"`
	Currency     string           `toml:"currency"`
	DisplayOrder int              `toml:"display_order"`
	// Active defaults to true when omitted.
	Active *bool `toml:"active"`
}

func (e Entry) Product() products.Product {
	p := products.Product{
		ProductID:    e.ProductID,
		Credits:      e.Credits,
		Currency:     strings.ToUpper(e.Currency),
		DisplayOrder: e.DisplayOrder,
		IsActive:     e.Active == nil || *e.Active,
	}

	if e.Price != nil {
		p.Price = decimal.NewNullDecimal(*e.Price)
	}

	return p
}

func LoadFile(path string) (File, error) {
	var f File

	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("%w: unknown keys %v", ErrInvalidCatalog, undecoded)
	}

	err = f.Validate()
	if err != nil {
		return File{}, err
	}

	return f, nil
}

func (f File) Validate() error {
	if len(f.Products) == 0 {
		return fmt.Errorf("%w: no products", ErrInvalidCatalog)
	}

	seen := make(map[string]struct{}, len(f.Products))

	for i, e := range f.Products {
		switch {
		case strings.TrimSpace(e.ProductID) == "":
			return fmt.Errorf("%w: product #%d has no product_id", ErrInvalidCatalog, i+1)
		case e.Credits <= 0:
			return fmt.Errorf("%w: %s: credits must be positive", ErrInvalidCatalog, e.ProductID)
		case e.Price != nil && e.Price.IsNegative():
			return fmt.Errorf("%w: %s: negative price", ErrInvalidCatalog, e.ProductID)
		case e.Price != nil && e.Currency == "":
			return fmt.Errorf("%w: %s: price without currency", ErrInvalidCatalog, e.ProductID)
		}

		if _, dup := seen[e.ProductID]; dup {
			return fmt.Errorf("%w: duplicate product_id %s", ErrInvalidCatalog, e.ProductID)
		}
		seen[e.ProductID] = struct{}{}
	}

	return nil
}
