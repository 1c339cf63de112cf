package receipt

import "errors"

var (
	// ErrMalformedReceipt means neither the JSON nor the token form yielded
	// every required field. Resubmitting the same receipt cannot succeed.
	ErrMalformedReceipt = errors.New("malformed receipt")
	// ErrReceiptSignatureInvalid means a signed receipt failed chain or
	// signature verification.
	ErrReceiptSignatureInvalid = errors.New("receipt signature invalid")
)
