package credits

import (
	"errors"
	"time"

	"github.com/fastprodman/creditledger/internal/receipt"
	"github.com/fastprodman/creditledger/internal/repos/products"
	"github.com/fastprodman/creditledger/internal/repos/transactions"
	"github.com/fastprodman/creditledger/internal/repos/users"
)

var (
	ErrMalformedReceipt        = receipt.ErrMalformedReceipt
	ErrReceiptSignatureInvalid = receipt.ErrReceiptSignatureInvalid
	ErrUserNotFound            = users.ErrUserNotFound
	ErrInsufficientCredits     = users.ErrInsufficientCredits
	ErrProductNotFound         = products.ErrProductNotFound

	ErrProductMismatch = errors.New("receipt product does not match claimed product")
	ErrProductInactive = errors.New("product inactive")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrMissingIdentity = errors.New("identity is required")
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PurchaseResult struct {
	TransactionID string
	CreditsAdded  int64
	NewBalance    int64
	// Duplicate is set when the receipt had already been redeemed and
	// nothing was written.
	Duplicate bool
}

type RewardResult struct {
	CreditsAdded int64
	NewBalance   int64
}

// Entry is one row of a user's history.
type Entry struct {
	ID        string
	Type      transactions.Type
	Amount    int64
	ProductID string
	Source    string
	Status    transactions.Status
	CreatedAt time.Time
}

type Page struct {
	Items  []Entry
	Total  int64
	Limit  int
	Offset int
}
