package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrInsufficientCredits = errors.New("insufficient credits")
var ErrUserNotFound = errors.New("user not found")

// User is the ledger's view of an identity: the opaque external id issued by
// the auth provider plus the current spendable balance.
type User struct {
	ID         string
	ExternalID string
	Credits    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Users is the Balance Store. Balance mutations only take a *sql.Tx so they
// always run in the same unit as the ledger insert that justifies them.
type Users interface {
	Ensure(ctx context.Context, externalID string) (User, error)
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	LockByExternalID(ctx context.Context, tx *sql.Tx, externalID string) (User, error)
	IncreaseBalance(ctx context.Context, tx *sql.Tx, userID string, amount int64) (int64, error)
	DecreaseBalance(ctx context.Context, tx *sql.Tx, userID string, amount int64) (int64, error)
}
