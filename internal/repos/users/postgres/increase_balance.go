package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/creditledger/internal/repos/users"
)

// IncreaseBalance adds amount and returns the new balance.
func (r *usersRepo) IncreaseBalance(ctx context.Context, tx *sql.Tx, userID string, amount int64) (int64, error) {
	var balance int64

	err := tx.QueryRowContext(ctx, `
		UPDATE users
		SET credits = credits + $2, updated_at = now()
		WHERE id = $1
		RETURNING credits
	`, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrUserNotFound
		}

		return 0, fmt.Errorf("increase balance: %w", err)
	}

	return balance, nil
}
