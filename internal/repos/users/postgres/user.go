package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/creditledger/internal/repos/users"
)

// Ensure creates the user on first sight and returns the stored row either way.
func (r *usersRepo) Ensure(ctx context.Context, externalID string) (users.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, external_id, credits)
		VALUES ($1, $2, 0)
		ON CONFLICT (external_id) DO NOTHING
	`, uuid.NewString(), externalID)
	if err != nil {
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}

	return r.GetByExternalID(ctx, externalID)
}

func (r *usersRepo) GetByExternalID(ctx context.Context, externalID string) (users.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE external_id = $1
	`, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}

		return users.User{}, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}
