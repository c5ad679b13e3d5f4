package marketdata

import (
	"context"
	"time"

	"github.com/stockfolio/backend/internal/domain"
)

// timeoutResolver caps how long one Resolve call may run. When the deadline
// passes, in-flight symbols settle as stale fallbacks or per-symbol errors
// inside the coordinator; a slow provider never blocks a portfolio view
// indefinitely.
type timeoutResolver struct {
	inner   domain.QuoteResolver
	timeout time.Duration
}

// WithTimeout wraps a resolver with a per-call deadline. A non-positive
// timeout returns the resolver unchanged.
func WithTimeout(inner domain.QuoteResolver, timeout time.Duration) domain.QuoteResolver {
	if timeout <= 0 {
		return inner
	}
	return timeoutResolver{inner: inner, timeout: timeout}
}

func (t timeoutResolver) Resolve(ctx context.Context, symbols []string) map[string]domain.QuoteResult {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Resolve(ctx, symbols)
}
