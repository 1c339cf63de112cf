package credits

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fastprodman/creditledger/internal/config"
	"github.com/fastprodman/creditledger/internal/infra/logging"
	"github.com/fastprodman/creditledger/internal/infra/pgtestutil"
	"github.com/fastprodman/creditledger/internal/receipt"
)

const (
	product100 = "com.photostyle.credits.100"
	product10  = "com.photostyle.credits.10"
	retired    = "com.photostyle.credits.500"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

// newTestService returns a service over a fresh database seeded with a small
// catalog.
func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)
	t.Cleanup(cleanup)

	pgtestutil.SeedProduct(t, db, product100, 100, true)
	pgtestutil.SeedProduct(t, db, product10, 10, true)
	pgtestutil.SeedProduct(t, db, retired, 500, false)

	svc := New(db,
		config.CreditsConfig{RewardAmount: 1, RewardSource: "rewarded_ad"},
		WithNormalizer(receipt.Normalizer{Now: func() time.Time { return testNow }}),
		WithLogger(logging.NewJSON(io.Discard, slog.LevelDebug)),
	)

	return svc, db
}

func jsonReceipt(txID, originalID, productID string) string {
	return `{"transactionId":"` + txID + `","originalTransactionId":"` + originalID +
		`","productId":"` + productID + `"}`
}

func countRows(t *testing.T, db *sql.DB, userID, txType string) int {
	t.Helper()

	var n int

	err := db.QueryRow(`
		SELECT count(*) FROM credit_transactions WHERE user_id = $1 AND type = $2
	`, userID, txType).Scan(&n)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}

	return n
}

func balanceOf(t *testing.T, db *sql.DB, userID string) int64 {
	t.Helper()

	var credits int64

	err := db.QueryRow(`SELECT credits FROM users WHERE id = $1`, userID).Scan(&credits)
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}

	return credits
}

// assertLedger checks that the stored balance equals the ledger sum.
func assertLedger(t *testing.T, db *sql.DB, userID string, want int64) {
	t.Helper()

	got := balanceOf(t, db, userID)
	if got != want {
		t.Fatalf("balance: want %d, got %d", want, got)
	}

	sum := pgtestutil.LedgerSum(t, db, userID)
	if sum != got {
		t.Fatalf("ledger sum %d differs from balance %d", sum, got)
	}
}
