package credits

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/fastprodman/creditledger/internal/config"
	"github.com/fastprodman/creditledger/internal/infra/metrics"
	"github.com/fastprodman/creditledger/internal/receipt"
	"github.com/fastprodman/creditledger/internal/repos/products"
	pgproducts "github.com/fastprodman/creditledger/internal/repos/products/postgres"
	"github.com/fastprodman/creditledger/internal/repos/transactions"
	pgtransactions "github.com/fastprodman/creditledger/internal/repos/transactions/postgres"
	"github.com/fastprodman/creditledger/internal/repos/users"
	pgusers "github.com/fastprodman/creditledger/internal/repos/users/postgres"
)

const (
	opPurchase = "purchase"
	opReward   = "reward"
	opUsage    = "usage"
)

// Service is the credits ledger. Every balance change runs in one database
// transaction holding the user's row lock, together with the ledger row that
// explains it.
type Service struct {
	db       *sql.DB
	users    users.Users
	txns     transactions.Transactions
	products products.Products

	normalizer   receipt.Normalizer
	rewardAmount int64
	rewardSource string
	log          *slog.Logger
}

type Option func(*Service)

// WithNormalizer replaces the receipt normalizer, e.g. to enable signature
// verification or pin the clock.
func WithNormalizer(n receipt.Normalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(dbx *sql.DB, cfg config.CreditsConfig, opts ...Option) *Service {
	s := &Service{
		db:           dbx,
		users:        pgusers.New(dbx),
		txns:         pgtransactions.New(dbx),
		products:     pgproducts.New(dbx),
		rewardAmount: cfg.RewardAmount,
		rewardSource: cfg.RewardSource,
		log:          slog.Default(),
	}

	if s.rewardAmount <= 0 {
		s.rewardAmount = 1
	}
	if s.rewardSource == "" {
		s.rewardSource = "rewarded_ad"
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func observe(operation string, started time.Time, err error, duplicate bool) {
	metrics.ObserveOperation(operation, outcome(err, duplicate), started)
}

func outcome(err error, duplicate bool) string {
	switch {
	case err == nil && duplicate:
		return metrics.OutcomeDuplicate
	case err == nil:
		return metrics.OutcomeOK
	case isRejection(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

// isRejection reports whether err is a business outcome rather than a fault.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrMalformedReceipt,
		ErrReceiptSignatureInvalid,
		ErrProductMismatch,
		ErrUserNotFound,
		ErrProductNotFound,
		ErrProductInactive,
		ErrInsufficientCredits,
		ErrInvalidAmount,
		ErrMissingIdentity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
