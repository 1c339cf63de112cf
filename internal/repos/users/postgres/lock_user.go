package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/creditledger/internal/repos/users"
)

// LockByExternalID reads the user row FOR UPDATE. Every ledger write takes
// this lock first, so same-user writes serialize on the row.
func (r *usersRepo) LockByExternalID(ctx context.Context, tx *sql.Tx, externalID string) (users.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE external_id = $1
		FOR UPDATE
	`, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}

		return users.User{}, fmt.Errorf("lock user: %w", err)
	}

	return u, nil
}
