package marketdata

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/stockfolio/backend/internal/domain"
)

// CoordinatorConfig holds fetch behavior settings.
type CoordinatorConfig struct {
	FetchAttempts   int           // attempts per symbol within one request
	RetryBase       time.Duration // first backoff delay, doubled per attempt
	RateLimitCalls  int           // provider calls allowed per window
	RateLimitWindow time.Duration
}

// Coordinator decides, per symbol and per request, whether to serve a cached
// quote or fetch a fresh one. Every provider call it makes is caused by an
// inbound Resolve; there is no scheduler, poller, or warmup path.
type Coordinator struct {
	cache    *Cache
	calendar *Calendar
	provider domain.QuoteProvider
	clock    domain.Clock
	limiter  *rate.Limiter
	group    singleflight.Group
	cfg      CoordinatorConfig
	log      zerolog.Logger
}

// NewCoordinator creates a fetch coordinator. The rate limiter is shared
// across all symbols: it paces the aggregate outbound call rate so a large
// portfolio refreshing at once cannot burst past the provider's limits.
func NewCoordinator(
	cache *Cache,
	calendar *Calendar,
	provider domain.QuoteProvider,
	clock domain.Clock,
	cfg CoordinatorConfig,
	log zerolog.Logger,
) *Coordinator {
	if cfg.FetchAttempts < 1 {
		cfg.FetchAttempts = 1
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RateLimitCalls < 1 {
		cfg.RateLimitCalls = 60
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	interval := cfg.RateLimitWindow / time.Duration(cfg.RateLimitCalls)

	return &Coordinator{
		cache:    cache,
		calendar: calendar,
		provider: provider,
		clock:    clock,
		limiter:  rate.NewLimiter(rate.Every(interval), cfg.RateLimitCalls),
		cfg:      cfg,
		log:      log.With().Str("service", "fetch_coordinator").Logger(),
	}
}

// Resolve returns a quote or a per-symbol error for every requested symbol.
// Symbols are normalized and deduplicated; independent symbols are fetched
// concurrently and the map is returned once all of them have settled. A bad
// symbol never fails the whole call.
func (c *Coordinator) Resolve(ctx context.Context, symbols []string) map[string]domain.QuoteResult {
	unique := normalizeSymbols(symbols)
	results := make(map[string]domain.QuoteResult, len(unique))
	if len(unique) == 0 {
		return results
	}

	type outcome struct {
		symbol string
		result domain.QuoteResult
	}
	ch := make(chan outcome, len(unique))

	for _, sym := range unique {
		go func(sym string) {
			ch <- outcome{symbol: sym, result: c.resolveOne(ctx, sym)}
		}(sym)
	}

	for range unique {
		out := <-ch
		results[out.symbol] = out.result
	}
	return results
}

// resolveOne applies the cache-hit / closed-market / fetch decision for a
// single symbol.
func (c *Coordinator) resolveOne(ctx context.Context, symbol string) domain.QuoteResult {
	now := c.clock.Now()

	if c.cache.IsFresh(symbol, now) {
		quote, _ := c.cache.Get(symbol)
		quote.Provenance = domain.ProvenanceCached
		return domain.QuoteResult{Quote: quote}
	}

	cached, hasCached := c.cache.Get(symbol)

	// A closed market cannot produce a new live price. Whatever we hold is
	// the best data obtainable until the next open, so refetching would be
	// wasted quota. The only exception is a symbol we have never seen at
	// all, which gets one fetch to seed the last available close.
	if !c.calendar.IsOpen(now) && hasCached {
		quote := cached
		quote.Provenance = domain.ProvenanceStaleFallback
		c.log.Debug().Str("symbol", symbol).Msg("Market closed, serving cached quote")
		return domain.QuoteResult{Quote: quote}
	}

	fetched, err, _ := c.group.Do(symbol, func() (interface{}, error) {
		return c.fetchWithRetry(ctx, symbol)
	})
	if err == nil {
		return domain.QuoteResult{Quote: fetched.(domain.Quote)}
	}

	// Invalid symbols and other permanent failures are surfaced as-is;
	// retrying or falling back would just mask a caller mistake.
	if domain.IsPermanent(err) {
		return domain.QuoteResult{Err: err}
	}

	if hasCached {
		quote := cached
		quote.Provenance = domain.ProvenanceStaleFallback
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Provider unavailable, serving stale quote")
		return domain.QuoteResult{Quote: quote}
	}

	return domain.QuoteResult{Err: domain.NoDataError{Symbol: symbol, Err: err}}
}

// fetchWithRetry performs the actual provider call with rate limiting and
// exponential backoff. Retries happen only within this request's lifetime;
// once the caller's context expires the error propagates immediately.
func (c *Coordinator) fetchWithRetry(ctx context.Context, symbol string) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.FetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, domain.TransientError{Symbol: symbol, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.TransientError{Symbol: symbol, Err: err}
		}

		quote, err := c.provider.FetchQuote(ctx, symbol)
		if err == nil {
			quote.Symbol = symbol
			quote.Provenance = domain.ProvenanceLive
			c.cache.Put(quote, c.clock.Now())
			c.log.Debug().
				Str("symbol", symbol).
				Str("price", quote.Price.String()).
				Int("attempt", attempt+1).
				Msg("Fetched quote")
			return quote, nil
		}

		if domain.IsPermanent(err) {
			return nil, err
		}

		lastErr = err
		c.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Int("attempt", attempt+1).
			Int("max_attempts", c.cfg.FetchAttempts).
			Msg("Quote fetch failed")
	}

	return nil, lastErr
}

// normalizeSymbols upper-cases, trims, and deduplicates while preserving
// first-seen order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// NormalizeSymbol is the single-symbol form of the normalization applied by
// Resolve, exposed so callers can key into Resolve's result map.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
