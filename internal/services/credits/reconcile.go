package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/creditledger/internal/infra/metrics"
	"github.com/fastprodman/creditledger/internal/infra/pgutils"
	"github.com/fastprodman/creditledger/internal/receipt"
	"github.com/fastprodman/creditledger/internal/repos/products"
	"github.com/fastprodman/creditledger/internal/repos/transactions"
)

// Reconcile validates a store receipt and grants the product's credits to
// identity exactly once per original transaction id. A receipt that was
// already redeemed yields the earlier transaction with Duplicate set.
//
// Flow:
//
// 1) Normalize the receipt.
// 2) Reject a receipt for a different product than the one claimed.
// 3) Lock the user row (FOR UPDATE).
// 4) Return the existing grant if the original id is already completed.
// 5) Look up the product; it must be active.
// 6) Increase the balance and insert the purchase row.
func (s *Service) Reconcile(ctx context.Context, identity, rawReceipt, claimedProductID string) (res PurchaseResult, err error) {
	started := time.Now()
	defer func() { observe(opPurchase, started, err, res.Duplicate) }()

	if identity == "" {
		return PurchaseResult{}, ErrMissingIdentity
	}

	desc, err := s.normalizer.Normalize(rawReceipt)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("normalize receipt: %w", err)
	}

	if desc.ProductID != claimedProductID {
		s.log.Warn("receipt product mismatch",
			"identity", identity,
			"claimed_product_id", claimedProductID,
			"receipt_product_id", desc.ProductID,
			"original_transaction_id", desc.OriginalTransactionID,
		)

		return PurchaseResult{}, ErrProductMismatch
	}

	err = pgutils.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		user, err := s.users.LockByExternalID(ctx, tx, identity)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		existing, err := s.txns.FindCompletedByOriginalID(ctx, tx, desc.OriginalTransactionID)
		if err == nil {
			s.warnForeignRedemption(existing, user.ID, identity)
			res = s.replay(ctx, tx, existing, user.Credits)
			return nil
		}
		if !errors.Is(err, transactions.ErrTransactionNotFound) {
			return fmt.Errorf("check existing grant: %w", err)
		}

		product, err := s.products.Get(ctx, tx, desc.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}

		if !product.IsActive {
			return fmt.Errorf("%w: %s", ErrProductInactive, product.ProductID)
		}

		balance, err := s.users.IncreaseBalance(ctx, tx, user.ID, product.Credits)
		if err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}

		rec, err := s.txns.Insert(ctx, tx, purchaseRecord(user.ID, product, desc, rawReceipt))
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		res = PurchaseResult{
			TransactionID: rec.ID,
			CreditsAdded:  product.Credits,
			NewBalance:    balance,
		}

		return nil
	})

	// Another request committed the same original id first; its grant stands.
	if errors.Is(err, transactions.ErrDuplicateTransaction) {
		res, err = s.replayCommitted(ctx, identity, desc.OriginalTransactionID)
	}

	if err != nil {
		return PurchaseResult{}, fmt.Errorf("reconcile purchase: %w", err)
	}

	if res.Duplicate {
		s.log.Info("duplicate receipt delivery",
			"identity", identity,
			"product_id", desc.ProductID,
			"original_transaction_id", desc.OriginalTransactionID,
			"transaction_id", res.TransactionID,
		)

		return res, nil
	}

	metrics.AddGranted(res.CreditsAdded)
	s.log.Info("purchase credited",
		"identity", identity,
		"product_id", desc.ProductID,
		"original_transaction_id", desc.OriginalTransactionID,
		"credits", res.CreditsAdded,
		"balance", res.NewBalance,
	)

	return res, nil
}

func purchaseRecord(userID string, p products.Product, d receipt.Descriptor, raw string) transactions.Transaction {
	return transactions.Transaction{
		UserID:                        userID,
		Type:                          transactions.TypePurchase,
		Amount:                        p.Credits,
		ProductID:                     p.ProductID,
		ExternalTransactionID:         d.TransactionID,
		ExternalOriginalTransactionID: d.OriginalTransactionID,
		ReceiptData:                   raw,
		Source:                        d.Environment,
		Status:                        transactions.StatusCompleted,
	}
}

// replay builds the response for an already redeemed receipt. Credits come
// from the current catalog when the product still exists; the stored row
// stays authoritative for what was actually granted.
func (s *Service) replay(ctx context.Context, q products.Querier, existing transactions.Transaction, balance int64) PurchaseResult {
	res := PurchaseResult{
		TransactionID: existing.ID,
		CreditsAdded:  existing.Amount,
		NewBalance:    balance,
		Duplicate:     true,
	}

	product, err := s.products.Get(ctx, q, existing.ProductID)
	if err == nil {
		res.CreditsAdded = product.Credits
	}

	return res
}

func (s *Service) replayCommitted(ctx context.Context, identity, originalID string) (PurchaseResult, error) {
	existing, err := s.txns.FindCompletedByOriginalID(ctx, s.db, originalID)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("read committed grant: %w", err)
	}

	user, err := s.users.GetByExternalID(ctx, identity)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("get user: %w", err)
	}

	s.warnForeignRedemption(existing, user.ID, identity)

	return s.replay(ctx, s.db, existing, user.Credits), nil
}

func (s *Service) warnForeignRedemption(existing transactions.Transaction, userID, identity string) {
	if existing.UserID == userID {
		return
	}

	s.log.Warn("receipt already redeemed by another user",
		"identity", identity,
		"original_transaction_id", existing.ExternalOriginalTransactionID,
		"transaction_id", existing.ID,
	)
}
