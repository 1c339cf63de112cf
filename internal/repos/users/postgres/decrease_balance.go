package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/creditledger/internal/infra/pgutils"
	"github.com/fastprodman/creditledger/internal/repos/users"
)

// DecreaseBalance subtracts amount only while the balance covers it and
// returns the new balance. No matching row means either the user is gone or
// the balance is short; both surface as ErrInsufficientCredits because the
// caller has already locked an existing user row.
func (r *usersRepo) DecreaseBalance(ctx context.Context, tx *sql.Tx, userID string, amount int64) (int64, error) {
	var balance int64

	err := tx.QueryRowContext(ctx, `
		UPDATE users
		SET credits = credits - $2, updated_at = now()
		WHERE id = $1
		  AND credits >= $2
		RETURNING credits
	`, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgutils.IsCheckViolation(err, "users_credits_non_negative") {
			return 0, users.ErrInsufficientCredits
		}

		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	return balance, nil
}
