package api

import (
	"context"
	"time"

	"github.com/fastprodman/creditledger/internal/repos/products"
	"github.com/fastprodman/creditledger/internal/repos/users"
	"github.com/fastprodman/creditledger/internal/services/credits"
)

// CreditsService is the ledger as seen by the HTTP layer.
type CreditsService interface {
	EnsureUser(ctx context.Context, identity string) (users.User, error)
	GetBalance(ctx context.Context, identity string) (int64, error)
	ListTransactions(ctx context.Context, identity string, limit, offset int) (credits.Page, error)
	ListProducts(ctx context.Context) ([]products.Product, error)
	Reconcile(ctx context.Context, identity, rawReceipt, claimedProductID string) (credits.PurchaseResult, error)
	GrantReward(ctx context.Context, identity, source string) (credits.RewardResult, error)
	Debit(ctx context.Context, identity string, amount int64, productID string) error
}

// RewardLimiter throttles reward claims per identity. A nil limiter disables
// throttling.
type RewardLimiter interface {
	Allow(ctx context.Context, identity string) (time.Duration, bool, error)
}

var _ CreditsService = (*credits.Service)(nil)
