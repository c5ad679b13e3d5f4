package domain

import (
	"errors"
	"fmt"
)

// TransientError is a provider failure worth retrying: timeout, 5xx,
// rate-limit response. After retries are exhausted the coordinator falls
// back to the last cached quote.
type TransientError struct {
	Symbol string
	Err    error
}

func (e TransientError) Error() string {
	return fmt.Sprintf("transient provider error for %s: %v", e.Symbol, e.Err)
}

func (e TransientError) Unwrap() error { return e.Err }

// PermanentError is a provider failure that will not succeed on retry:
// unknown symbol, auth failure, any 4xx other than rate limiting.
type PermanentError struct {
	Symbol string
	Err    error
}

func (e PermanentError) Error() string {
	return fmt.Sprintf("permanent provider error for %s: %v", e.Symbol, e.Err)
}

func (e PermanentError) Unwrap() error { return e.Err }

// NoDataError means the provider failed on the first-ever fetch for a symbol
// and there is no cached quote to fall back to. Never silently defaulted to
// zero; the caller renders "price unavailable" for that row.
type NoDataError struct {
	Symbol string
	Err    error
}

func (e NoDataError) Error() string {
	return fmt.Sprintf("no quote data available for %s: %v", e.Symbol, e.Err)
}

func (e NoDataError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a TransientError anywhere in its chain.
func IsTransient(err error) bool {
	var te TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is a PermanentError anywhere in its chain.
func IsPermanent(err error) bool {
	var pe PermanentError
	return errors.As(err, &pe)
}
