package derive

import "errors"

var (
	// ErrInvalidEncoding is returned when a caller supplies point bytes
	// that are the wrong length or do not decode to a curve point.
	ErrInvalidEncoding = errors.New("invalid point encoding")

	// ErrCurveOperation is returned when an internal curve computation
	// produces an inconsistent result, such as the point at infinity or
	// a zero private key.
	ErrCurveOperation = errors.New("curve operation failed")

	// ErrDerivationExhausted is returned when rejection sampling fails to
	// produce a valid scalar within the retry bound. With an unbiased
	// hash this is unreachable in practice.
	ErrDerivationExhausted = errors.New("scalar derivation did not converge")
)
