package users

import (
	"database/sql"

	"github.com/fastprodman/creditledger/internal/repos/users"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct{ db *sql.DB }

func New(db *sql.DB) *usersRepo {
	return &usersRepo{db: db}
}

const userColumns = `id, external_id, credits, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User

	err := row.Scan(&u.ID, &u.ExternalID, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return users.User{}, err
	}

	return u, nil
}
