package credits

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/creditledger/internal/infra/metrics"
	"github.com/fastprodman/creditledger/internal/infra/pgutils"
	"github.com/fastprodman/creditledger/internal/repos/transactions"
)

// Debit spends amount credits. productID optionally names what was paid for
// and is recorded on the usage row as is.
func (s *Service) Debit(ctx context.Context, identity string, amount int64, productID string) (err error) {
	started := time.Now()
	defer func() { observe(opUsage, started, err, false) }()

	if identity == "" {
		return ErrMissingIdentity
	}

	if amount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	var balance int64

	err = pgutils.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		user, err := s.users.LockByExternalID(ctx, tx, identity)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		if user.Credits < amount {
			return fmt.Errorf("pre-check debit: %w", ErrInsufficientCredits)
		}

		balance, err = s.users.DecreaseBalance(ctx, tx, user.ID, amount)
		if err != nil {
			return fmt.Errorf("decrease balance: %w", err)
		}

		_, err = s.txns.Insert(ctx, tx, transactions.Transaction{
			UserID:    user.ID,
			Type:      transactions.TypeUsage,
			Amount:    -amount,
			ProductID: productID,
			Status:    transactions.StatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("insert usage: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("debit credits: %w", err)
	}

	metrics.AddDebited(amount)
	s.log.Info("credits debited",
		"identity", identity,
		"product_id", productID,
		"credits", amount,
		"balance", balance,
	)

	return nil
}
