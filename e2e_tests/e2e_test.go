package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// The suite runs against a live API started with APP_ENV=DEV seed data:
//
//	E2E_BASE_URL=http://localhost:8080 go test ./e2e_tests/...
const (
	timeout   = 5 * time.Second
	waitReady = 20 * time.Second

	seededProduct = "com.photostyle.credits.100"
)

var httpClient = &http.Client{Timeout: timeout}

func baseURL(t *testing.T) string {
	t.Helper()

	u := os.Getenv("E2E_BASE_URL")
	if u == "" {
		t.Skip("E2E_BASE_URL not set")
	}

	return u
}

func TestE2E_PurchaseSpendReward(t *testing.T) {
	base := baseURL(t)
	waitUntilReady(t, base)

	identity := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	originalID := "orig-" + identity
	receipt := fmt.Sprintf(`{"transactionId":"tx-%s","originalTransactionId":"%s","productId":"%s"}`,
		identity, originalID, seededProduct)

	t.Run("register_starts_at_zero", func(t *testing.T) {
		code, body := call(t, base, http.MethodPost, "/v1/users/me", identity, nil)
		if code != http.StatusOK {
			t.Fatalf("register: want 200, got %d (%s)", code, body)
		}
		if got := balance(t, base, identity); got != 0 {
			t.Fatalf("initial balance: want 0, got %d", got)
		}
	})

	var firstTx string

	t.Run("purchase_grants_product_credits", func(t *testing.T) {
		code, body := call(t, base, http.MethodPost, "/v1/credits/purchase", identity,
			map[string]string{"receiptData": receipt, "productId": seededProduct})
		if code != http.StatusOK {
			t.Fatalf("purchase: want 200, got %d (%s)", code, body)
		}

		var res struct {
			TransactionID string `json:"transactionId"`
			CreditsAdded  int64  `json:"creditsAdded"`
			NewBalance    int64  `json:"newBalance"`
		}
		mustDecode(t, body, &res)

		if res.CreditsAdded != 100 || res.NewBalance != 100 || res.TransactionID == "" {
			t.Fatalf("unexpected purchase result %+v", res)
		}
		firstTx = res.TransactionID
	})

	t.Run("replay_returns_same_grant", func(t *testing.T) {
		code, body := call(t, base, http.MethodPost, "/v1/credits/purchase", identity,
			map[string]string{"receiptData": receipt, "productId": seededProduct})
		if code != http.StatusOK {
			t.Fatalf("replay: want 200, got %d (%s)", code, body)
		}

		var res struct {
			TransactionID string `json:"transactionId"`
			NewBalance    int64  `json:"newBalance"`
		}
		mustDecode(t, body, &res)

		if res.TransactionID != firstTx || res.NewBalance != 100 {
			t.Fatalf("replay must not grant again: %+v", res)
		}
	})

	t.Run("receipt_claimed_as_other_product", func(t *testing.T) {
		code, _ := call(t, base, http.MethodPost, "/v1/credits/purchase", identity,
			map[string]string{"receiptData": receipt, "productId": "com.photostyle.credits.10"})
		if code != http.StatusUnprocessableEntity {
			t.Fatalf("mismatch: want 422, got %d", code)
		}
	})

	t.Run("malformed_receipt", func(t *testing.T) {
		code, _ := call(t, base, http.MethodPost, "/v1/credits/purchase", identity,
			map[string]string{"receiptData": "not json{", "productId": seededProduct})
		if code != http.StatusUnprocessableEntity {
			t.Fatalf("malformed: want 422, got %d", code)
		}
	})

	t.Run("usage_debits", func(t *testing.T) {
		code, body := call(t, base, http.MethodPost, "/v1/credits/usage", identity, map[string]any{"amount": 5})
		if code != http.StatusOK {
			t.Fatalf("usage: want 200, got %d (%s)", code, body)
		}
		if got := balance(t, base, identity); got != 95 {
			t.Fatalf("after usage: want 95, got %d", got)
		}
	})

	t.Run("overdraw_rejected", func(t *testing.T) {
		code, _ := call(t, base, http.MethodPost, "/v1/credits/usage", identity, map[string]any{"amount": 1000})
		if code != http.StatusConflict {
			t.Fatalf("overdraw: want 409, got %d", code)
		}
		if got := balance(t, base, identity); got != 95 {
			t.Fatalf("balance must be unchanged, got %d", got)
		}
	})

	t.Run("reward_adds_one", func(t *testing.T) {
		code, body := call(t, base, http.MethodPost, "/v1/credits/reward", identity, nil)
		if code != http.StatusOK {
			t.Fatalf("reward: want 200, got %d (%s)", code, body)
		}
		if got := balance(t, base, identity); got != 96 {
			t.Fatalf("after reward: want 96, got %d", got)
		}
	})

	t.Run("history_lists_every_movement", func(t *testing.T) {
		code, body := call(t, base, http.MethodGet, "/v1/credits/transactions?limit=10", identity, nil)
		if code != http.StatusOK {
			t.Fatalf("history: want 200, got %d (%s)", code, body)
		}

		var res struct {
			Transactions []struct {
				Type   string `json:"type"`
				Amount int64  `json:"amount"`
			} `json:"transactions"`
			Meta struct {
				Total int64 `json:"total"`
			} `json:"meta"`
		}
		mustDecode(t, body, &res)

		if res.Meta.Total != 3 || len(res.Transactions) != 3 {
			t.Fatalf("want 3 movements, got %+v", res)
		}

		var sum int64
		for _, tx := range res.Transactions {
			sum += tx.Amount
		}
		if sum != 96 {
			t.Fatalf("ledger sum %d differs from balance 96", sum)
		}
	})
}

func TestE2E_UnknownUserAndMissingIdentity(t *testing.T) {
	base := baseURL(t)
	waitUntilReady(t, base)

	code, _ := call(t, base, http.MethodGet, "/v1/credits/balance", fmt.Sprintf("ghost-%d", time.Now().UnixNano()), nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown user: want 404, got %d", code)
	}

	code, _ = call(t, base, http.MethodGet, "/v1/credits/balance", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("missing identity: want 401, got %d", code)
	}
}

/* -------------------- helpers -------------------- */

func call(t *testing.T, base, method, path, identity string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, base+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		req.Header.Set("X-User-ID", identity)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func balance(t *testing.T, base, identity string) int64 {
	t.Helper()

	code, body := call(t, base, http.MethodGet, "/v1/credits/balance", identity, nil)
	if code != http.StatusOK {
		t.Fatalf("balance: want 200, got %d (%s)", code, body)
	}

	var payload struct {
		Credits int64 `json:"credits"`
	}
	mustDecode(t, body, &payload)

	return payload.Credits
}

func mustDecode(t *testing.T, body []byte, v any) {
	t.Helper()

	err := json.Unmarshal(body, v)
	if err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}

// waitUntilReady polls /healthz until the API answers or waitReady elapses.
func waitUntilReady(t *testing.T, base string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", base, waitReady)
		case <-tick.C:
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/healthz", nil)
			resp, err := httpClient.Do(req)
			if err != nil {
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}
