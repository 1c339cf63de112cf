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

// GrantReward adds the configured reward amount. Every call grants; callers
// that need throttling do it before reaching the ledger.
func (s *Service) GrantReward(ctx context.Context, identity, source string) (res RewardResult, err error) {
	started := time.Now()
	defer func() { observe(opReward, started, err, false) }()

	if identity == "" {
		return RewardResult{}, ErrMissingIdentity
	}

	if source == "" {
		source = s.rewardSource
	}

	err = pgutils.WithTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		user, err := s.users.LockByExternalID(ctx, tx, identity)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		balance, err := s.users.IncreaseBalance(ctx, tx, user.ID, s.rewardAmount)
		if err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}

		_, err = s.txns.Insert(ctx, tx, transactions.Transaction{
			UserID: user.ID,
			Type:   transactions.TypeBonus,
			Amount: s.rewardAmount,
			Source: source,
			Status: transactions.StatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("insert bonus: %w", err)
		}

		res = RewardResult{CreditsAdded: s.rewardAmount, NewBalance: balance}

		return nil
	})
	if err != nil {
		return RewardResult{}, fmt.Errorf("grant reward: %w", err)
	}

	metrics.AddGranted(res.CreditsAdded)
	s.log.Info("reward granted",
		"identity", identity,
		"source", source,
		"credits", res.CreditsAdded,
		"balance", res.NewBalance,
	)

	return res, nil
}
