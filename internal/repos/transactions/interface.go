package transactions

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrTransactionNotFound  = errors.New("transaction not found")
)

type Type string

const (
	TypePurchase Type = "purchase"
	TypeUsage    Type = "usage"
	TypeBonus    Type = "bonus"
	TypeRefund   Type = "refund"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transaction is one signed credit movement. Empty optional strings are
// stored as NULL.
type Transaction struct {
	ID                            string
	UserID                        string
	Type                          Type
	Amount                        int64
	ProductID                     string
	ExternalTransactionID         string
	ExternalOriginalTransactionID string
	ReceiptData                   string
	Source                        string
	Status                        Status
	CreatedAt                     time.Time
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Transactions interface {
	Insert(ctx context.Context, tx *sql.Tx, t Transaction) (Transaction, error)
	FindCompletedByOriginalID(ctx context.Context, q Querier, originalID string) (Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Transaction, int64, error)
}
