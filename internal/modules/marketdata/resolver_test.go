package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/backend/internal/domain"
)

type deadlineCapturingResolver struct {
	hadDeadline bool
}

func (r *deadlineCapturingResolver) Resolve(ctx context.Context, symbols []string) map[string]domain.QuoteResult {
	_, r.hadDeadline = ctx.Deadline()
	return map[string]domain.QuoteResult{}
}

func TestWithTimeout_AppliesDeadline(t *testing.T) {
	inner := &deadlineCapturingResolver{}
	resolver := WithTimeout(inner, 5*time.Second)

	resolver.Resolve(context.Background(), []string{"AAPL"})
	assert.True(t, inner.hadDeadline)
}

func TestWithTimeout_NonPositiveReturnsInner(t *testing.T) {
	inner := &deadlineCapturingResolver{}
	resolver := WithTimeout(inner, 0)
	require.Equal(t, domain.QuoteResolver(inner), resolver)

	resolver.Resolve(context.Background(), nil)
	assert.False(t, inner.hadDeadline)
}
