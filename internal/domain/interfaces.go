package domain

import (
	"context"
	"time"
)

// QuoteProvider fetches one live quote per call from an upstream market data
// API. Implementations map provider failures onto TransientError /
// PermanentError so the coordinator can decide whether to retry.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
}

// QuoteResolver resolves the full set of symbols a portfolio view needs,
// serving from cache where possible. Implemented by the fetch coordinator.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbols []string) map[string]QuoteResult
}

// QuoteResult is the per-symbol outcome of a Resolve call: a quote, or an
// error scoped to that symbol. Never both.
type QuoteResult struct {
	Quote Quote
	Err   error
}

// HoldingsSource is the read side of the holdings store as seen by the
// portfolio service.
type HoldingsSource interface {
	GetByUser(userID string) ([]Holding, error)
}

// Clock abstracts wall-clock time so cache TTL and calendar logic can be
// tested with a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
