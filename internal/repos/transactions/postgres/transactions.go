package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/creditledger/internal/infra/pgutils"
	"github.com/fastprodman/creditledger/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

// originalCompletedIndex backs the one-grant-per-original-transaction rule.
const originalCompletedIndex = "ux_credit_tx_original_completed"

const txColumns = `
	id, user_id, type, amount, product_id,
	external_transaction_id, external_original_transaction_id,
	receipt_data, source, status, created_at`

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

// Insert appends t to the ledger, assigning ID (when empty) and CreatedAt.
// A second completed row for the same external original transaction id
// violates the partial unique index and is reported as ErrDuplicateTransaction.
func (r *transactionsRepo) Insert(ctx context.Context, tx *sql.Tx, t transactions.Transaction) (transactions.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	if t.Status == "" {
		t.Status = transactions.StatusCompleted
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO credit_transactions (
			id, user_id, type, amount, product_id,
			external_transaction_id, external_original_transaction_id,
			receipt_data, source, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`,
		t.ID, t.UserID, string(t.Type), t.Amount, nullString(t.ProductID),
		nullString(t.ExternalTransactionID), nullString(t.ExternalOriginalTransactionID),
		nullString(t.ReceiptData), nullString(t.Source), string(t.Status),
	).Scan(&t.CreatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err, originalCompletedIndex) {
			return transactions.Transaction{}, transactions.ErrDuplicateTransaction
		}

		return transactions.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	return t, nil
}

func (r *transactionsRepo) FindCompletedByOriginalID(
	ctx context.Context,
	q transactions.Querier,
	originalID string,
) (transactions.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM credit_transactions
		WHERE external_original_transaction_id = $1
		  AND status = 'completed'
	`, originalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transactions.Transaction{}, transactions.ErrTransactionNotFound
		}

		return transactions.Transaction{}, fmt.Errorf("find by original id: %w", err)
	}

	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (transactions.Transaction, error) {
	var (
		t                           transactions.Transaction
		txType, status              string
		productID, extID, extOrigID sql.NullString
		receiptData, source         sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.UserID, &txType, &t.Amount, &productID,
		&extID, &extOrigID,
		&receiptData, &source, &status, &t.CreatedAt,
	)
	if err != nil {
		return transactions.Transaction{}, err
	}

	t.Type = transactions.Type(txType)
	t.Status = transactions.Status(status)
	t.ProductID = productID.String
	t.ExternalTransactionID = extID.String
	t.ExternalOriginalTransactionID = extOrigID.String
	t.ReceiptData = receiptData.String
	t.Source = source.String

	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
