package credits

import (
	"context"
	"fmt"

	"github.com/fastprodman/creditledger/internal/repos/products"
	"github.com/fastprodman/creditledger/internal/repos/users"
)

// EnsureUser registers identity on first sight and returns its current state.
func (s *Service) EnsureUser(ctx context.Context, identity string) (users.User, error) {
	if identity == "" {
		return users.User{}, ErrMissingIdentity
	}

	user, err := s.users.Ensure(ctx, identity)
	if err != nil {
		return users.User{}, fmt.Errorf("ensure user: %w", err)
	}

	return user, nil
}

// GetBalance reads without locking.
func (s *Service) GetBalance(ctx context.Context, identity string) (int64, error) {
	if identity == "" {
		return 0, ErrMissingIdentity
	}

	user, err := s.users.GetByExternalID(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return user.Credits, nil
}

// ListTransactions returns a page of history, newest first. limit defaults
// to DefaultPageLimit and is capped at MaxPageLimit; a negative offset is 0.
func (s *Service) ListTransactions(ctx context.Context, identity string, limit, offset int) (Page, error) {
	if identity == "" {
		return Page{}, ErrMissingIdentity
	}

	limit, offset = clampPage(limit, offset)

	user, err := s.users.GetByExternalID(ctx, identity)
	if err != nil {
		return Page{}, fmt.Errorf("get user: %w", err)
	}

	rows, total, err := s.txns.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("list transactions: %w", err)
	}

	page := Page{
		Items:  make([]Entry, 0, len(rows)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}

	for _, r := range rows {
		page.Items = append(page.Items, Entry{
			ID:        r.ID,
			Type:      r.Type,
			Amount:    r.Amount,
			ProductID: r.ProductID,
			Source:    r.Source,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}

	return page, nil
}

// ListProducts returns the active catalog in display order.
func (s *Service) ListProducts(ctx context.Context) ([]products.Product, error) {
	ps, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return ps, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
