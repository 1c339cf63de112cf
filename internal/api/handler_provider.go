package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// HandlerProvider wraps the credits service and exposes HTTP handlers.
type HandlerProvider struct {
	svc     CreditsService
	limiter RewardLimiter
}

// NewHandler returns a new Handler provider. limiter may be nil.
func NewHandler(svc CreditsService, limiter RewardLimiter) *HandlerProvider {
	return &HandlerProvider{svc: svc, limiter: limiter}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, errorBody{Error: msg, Code: CodeBadRequest})
}

// writeServiceError maps err and logs the ones nobody expects.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"route", r.URL.Path,
			"identity", IdentityFrom(r.Context()),
			"error", err,
		)
	}

	writeError(w, status, body)
}

// decodeBody reads a JSON object, rejecting unknown fields. An empty body is
// accepted when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return true
			}
			badRequest(w, "empty body")
			return false
		}

		badRequest(w, "invalid JSON")
		return false
	}

	return true
}

func queryInt(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return n, true
}

// --- DTOs ---

type balanceResponse struct {
	Credits int64 `json:"credits"`
}

type transactionDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	ProductID string    `json:"productId,omitempty"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type pageMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type transactionsResponse struct {
	Transactions []transactionDTO `json:"transactions"`
	Meta         pageMeta         `json:"meta"`
}

type productDTO struct {
	ProductID    string           `json:"productId"`
	Credits      int64            `json:"credits"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	DisplayOrder int              `json:"displayOrder"`
}

type productsResponse struct {
	Products []productDTO `json:"products"`
}

type purchaseRequest struct {
	ReceiptData string `json:"receiptData"`
	ProductID   string `json:"productId"`
}

type purchaseResponse struct {
	TransactionID string `json:"transactionId"`
	CreditsAdded  int64  `json:"creditsAdded"`
	NewBalance    int64  `json:"newBalance"`
}

type rewardRequest struct {
	Source string `json:"source"`
}

type rewardResponse struct {
	CreditsAdded int64 `json:"creditsAdded"`
	NewBalance   int64 `json:"newBalance"`
}

type usageRequest struct {
	Amount    int64  `json:"amount"`
	ProductID string `json:"productId"`
}

// --- Handlers ---

// EnsureUserHandler handles POST /v1/users/me
func (h *HandlerProvider) EnsureUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.EnsureUser(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Credits: user.Credits})
}

// GetBalanceHandler handles GET /v1/credits/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	credits, err := h.svc.GetBalance(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Credits: credits})
}

// ListTransactionsHandler handles GET /v1/credits/transactions?limit&offset
func (h *HandlerProvider) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		badRequest(w, "invalid limit")
		return
	}

	offset, ok := queryInt(r, "offset")
	if !ok {
		badRequest(w, "invalid offset")
		return
	}

	page, err := h.svc.ListTransactions(r.Context(), IdentityFrom(r.Context()), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := transactionsResponse{
		Transactions: make([]transactionDTO, 0, len(page.Items)),
		Meta:         pageMeta{Total: page.Total, Limit: page.Limit, Offset: page.Offset},
	}

	for _, e := range page.Items {
		resp.Transactions = append(resp.Transactions, transactionDTO{
			ID:        e.ID,
			Type:      string(e.Type),
			Amount:    e.Amount,
			ProductID: e.ProductID,
			Source:    e.Source,
			Status:    string(e.Status),
			CreatedAt: e.CreatedAt.UTC(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListProductsHandler handles GET /v1/credits/products
func (h *HandlerProvider) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := productsResponse{Products: make([]productDTO, 0, len(ps))}

	for _, p := range ps {
		dto := productDTO{
			ProductID:    p.ProductID,
			Credits:      p.Credits,
			Currency:     p.Currency,
			DisplayOrder: p.DisplayOrder,
		}
		if p.Price.Valid {
			price := p.Price.Decimal
			dto.Price = &price
		}

		resp.Products = append(resp.Products, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}

// PurchaseHandler handles POST /v1/credits/purchase
func (h *HandlerProvider) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	if req.ProductID == "" {
		badRequest(w, "productId required")
		return
	}

	res, err := h.svc.Reconcile(r.Context(), IdentityFrom(r.Context()), req.ReceiptData, req.ProductID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		TransactionID: res.TransactionID,
		CreditsAdded:  res.CreditsAdded,
		NewBalance:    res.NewBalance,
	})
}

// RewardHandler handles POST /v1/credits/reward
func (h *HandlerProvider) RewardHandler(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	identity := IdentityFrom(r.Context())

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.Allow(r.Context(), identity)
		switch {
		case err != nil:
			// Fail open.
			slog.Warn("reward throttle unavailable", "identity", identity, "error", err)
		case !allowed:
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			writeError(w, http.StatusTooManyRequests, errorBody{
				Error:     "too many reward claims",
				Code:      CodeRateLimited,
				Retryable: true,
			})
			return
		}
	}

	res, err := h.svc.GrantReward(r.Context(), identity, req.Source)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rewardResponse{CreditsAdded: res.CreditsAdded, NewBalance: res.NewBalance})
}

// UsageHandler handles POST /v1/credits/usage
func (h *HandlerProvider) UsageHandler(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	err := h.svc.Debit(r.Context(), IdentityFrom(r.Context()), req.Amount, req.ProductID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
