// Package receipt turns store receipts into a single transaction descriptor.
//
// Two encodings are accepted: a JSON object (legacy receipts and tests) and a
// compact signed token (StoreKit 2 JWS). The JSON form is tried first, and
// only when the input looks like an object; a structurally valid object that
// misses required fields is rejected rather than retried as a token.
package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultQuantity    = 1
	DefaultEnvironment = "production"
)

// Descriptor is the store-agnostic view of one purchase.
type Descriptor struct {
	TransactionID         string
	OriginalTransactionID string
	ProductID             string
	PurchaseTime          time.Time
	Quantity              int
	Environment           string
}

// PurchaseTimeMillis is the purchase instant as a Unix epoch in milliseconds.
func (d Descriptor) PurchaseTimeMillis() int64 {
	return d.PurchaseTime.UnixMilli()
}

// SignatureVerifier checks the signature of a token-shaped receipt.
type SignatureVerifier interface {
	Verify(token string) error
}

// Normalizer is safe for concurrent use once constructed.
type Normalizer struct {
	// Now supplies the purchase time when the receipt carries none.
	Now func() time.Time
	// Verifier, when set, is applied to token receipts before decoding.
	Verifier SignatureVerifier
}

var defaultNormalizer = Normalizer{}

// Normalize decodes raw with the wall clock and no signature verification.
func Normalize(raw string) (Descriptor, error) {
	return defaultNormalizer.Normalize(raw)
}

func (n Normalizer) Normalize(raw string) (Descriptor, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Descriptor{}, fmt.Errorf("%w: empty receipt", ErrMalformedReceipt)
	}

	if strings.HasPrefix(trimmed, "{") {
		fields, ok := decodeJSONObject(trimmed)
		if ok {
			return n.build(fields, false)
		}
	}

	fields, err := decodeToken(trimmed)
	if err != nil {
		return Descriptor{}, err
	}

	if n.Verifier != nil {
		err = n.Verifier.Verify(trimmed)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %v", ErrReceiptSignatureInvalid, err)
		}
	}

	return n.build(fields, true)
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}

	return time.Now()
}

func decodeJSONObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var m map[string]any

	err := dec.Decode(&m)
	if err != nil || m == nil {
		return nil, false
	}

	// Trailing garbage after the object makes it not-an-object.
	if dec.More() {
		return nil, false
	}

	return m, true
}

var tokenParser = jwt.NewParser(jwt.WithPaddingAllowed(), jwt.WithJSONNumber())

func decodeToken(s string) (map[string]any, error) {
	if strings.Count(s, ".") != 2 {
		return nil, fmt.Errorf("%w: not a json object or signed token", ErrMalformedReceipt)
	}

	claims := jwt.MapClaims{}

	// An unknown or missing alg only makes the token unverifiable; the
	// claims are still decoded.
	_, _, err := tokenParser.ParseUnverified(s, claims)
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("%w: decode token: %v", ErrMalformedReceipt, err)
	}

	return claims, nil
}

func (n Normalizer) build(fields map[string]any, token bool) (Descriptor, error) {
	txKeys := []string{"transactionId", "transaction_id"}
	if token {
		txKeys = append(txKeys, "jti")
	}

	d := Descriptor{
		TransactionID:         firstString(fields, txKeys...),
		OriginalTransactionID: firstString(fields, "originalTransactionId", "original_transaction_id"),
		ProductID:             firstString(fields, "productId", "product_id"),
		Quantity:              DefaultQuantity,
		Environment:           DefaultEnvironment,
	}

	var missing []string
	if d.TransactionID == "" {
		missing = append(missing, "transaction id")
	}
	if d.OriginalTransactionID == "" {
		missing = append(missing, "original transaction id")
	}
	if d.ProductID == "" {
		missing = append(missing, "product id")
	}
	if len(missing) > 0 {
		return Descriptor{}, fmt.Errorf("%w: missing %s", ErrMalformedReceipt, strings.Join(missing, ", "))
	}

	if q, ok := firstInt(fields, "quantity"); ok && q > 0 {
		d.Quantity = int(q)
	}

	if env := firstString(fields, "environment"); env != "" {
		d.Environment = strings.ToLower(env)
	}

	d.PurchaseTime = n.now()
	if ms, ok := firstInt(fields, "purchaseDate", "purchase_date", "purchaseDateMs", "purchase_date_ms"); ok {
		d.PurchaseTime = time.UnixMilli(ms)
	} else if ts := firstString(fields, "purchaseDate", "purchase_date"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			d.PurchaseTime = t
		}
	}

	return d, nil
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}

	return ""
}

func firstInt(fields map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		var raw string

		switch v := fields[k].(type) {
		case json.Number:
			raw = v.String()
		case string:
			raw = strings.TrimSpace(v)
		default:
			continue
		}

		n, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return n, true
		}

		// StoreKit occasionally sends ms epochs as floats.
		f, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			return int64(f), true
		}
	}

	return 0, false
}
