package api

import (
	"errors"
	"net/http"

	"github.com/fastprodman/creditledger/internal/services/credits"
)

// Error codes returned in the "code" field.
const (
	CodeBadRequest              = "BAD_REQUEST"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeMalformedReceipt        = "MALFORMED_RECEIPT"
	CodeReceiptSignatureInvalid = "RECEIPT_SIGNATURE_INVALID"
	CodeProductMismatch         = "PRODUCT_MISMATCH"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeProductNotFound         = "PRODUCT_NOT_FOUND"
	CodeProductInactive         = "PRODUCT_INACTIVE"
	CodeInsufficientCredits     = "INSUFFICIENT_CREDITS"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodeRateLimited             = "RATE_LIMITED"
	CodeInternal                = "INTERNAL"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{credits.ErrMalformedReceipt, http.StatusUnprocessableEntity, CodeMalformedReceipt, "malformed receipt"},
	{credits.ErrReceiptSignatureInvalid, http.StatusUnprocessableEntity, CodeReceiptSignatureInvalid, "receipt signature invalid"},
	{credits.ErrProductMismatch, http.StatusUnprocessableEntity, CodeProductMismatch, "receipt product does not match"},
	{credits.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound, "user not found"},
	{credits.ErrProductNotFound, http.StatusNotFound, CodeProductNotFound, "product not found"},
	{credits.ErrProductInactive, http.StatusConflict, CodeProductInactive, "product inactive"},
	{credits.ErrInsufficientCredits, http.StatusConflict, CodeInsufficientCredits, "insufficient credits"},
	{credits.ErrInvalidAmount, http.StatusBadRequest, CodeInvalidAmount, "amount must be positive"},
	{credits.ErrMissingIdentity, http.StatusUnauthorized, CodeUnauthorized, "missing identity"},
}

// classify maps a service error to a status and body. Only unexpected
// failures are retryable.
func classify(err error) (int, errorBody) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, errorBody{Error: m.message, Code: m.code}
		}
	}

	return http.StatusInternalServerError, errorBody{Error: "internal error", Code: CodeInternal, Retryable: true}
}
