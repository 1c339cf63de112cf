package transactions

import (
	"context"
	"fmt"

	"github.com/fastprodman/creditledger/internal/repos/transactions"
)

// ListByUser returns one page of a user's ledger, newest first, plus the
// total row count.
func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]transactions.Transaction, int64, error) {
	var total int64

	err := r.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM credit_transactions
		WHERE user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+`
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	items := make([]transactions.Transaction, 0, limit)

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}

		items = append(items, t)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}

	return items, total, nil
}
