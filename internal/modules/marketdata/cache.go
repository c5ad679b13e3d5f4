package marketdata

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockfolio/backend/internal/domain"
)

// cacheEntry owns one quote plus the wall-clock time it was written.
// Entries are overwritten on every fetch and purged lazily once they fall
// outside the configured horizon.
type cacheEntry struct {
	quote     domain.Quote
	fetchedAt time.Time
}

// Cache holds the last known quote per symbol with market-hours-aware
// freshness. Entries live in a sync.Map so a write for one symbol never
// blocks reads for other symbols. There is no eviction goroutine: staleness
// is computed at read time and old entries are purged inline on writes,
// which is what keeps the system completely silent when no requests are in
// flight.
type Cache struct {
	entries  sync.Map // symbol -> cacheEntry
	calendar *Calendar
	openTTL  time.Duration
	horizon  time.Duration
	log      zerolog.Logger
}

// NewCache creates a quote cache calibrated against the given calendar.
// openTTL is the freshness window while the market is open; horizon bounds
// how long an entry may sit untouched before it is purged on the next write.
func NewCache(calendar *Calendar, openTTL, horizon time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		calendar: calendar,
		openTTL:  openTTL,
		horizon:  horizon,
		log:      log.With().Str("service", "quote_cache").Logger(),
	}
}

func (c *Cache) load(symbol string) (cacheEntry, bool) {
	v, ok := c.entries.Load(symbol)
	if !ok {
		return cacheEntry{}, false
	}
	return v.(cacheEntry), true
}

// Get returns the most recent quote for symbol regardless of freshness.
// Use IsFresh to decide whether it can be served as-is.
func (c *Cache) Get(symbol string) (domain.Quote, bool) {
	e, ok := c.load(symbol)
	if !ok {
		return domain.Quote{}, false
	}
	return e.quote, true
}

// FetchedAt returns when the entry for symbol was last written.
func (c *Cache) FetchedAt(symbol string) (time.Time, bool) {
	e, ok := c.load(symbol)
	if !ok {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}

// Put overwrites the entry for quote.Symbol, stamping it with fetchedAt.
// Entries older than the horizon are purged on the same pass; the map stays
// bounded by the set of symbols requested within the horizon.
func (c *Cache) Put(quote domain.Quote, fetchedAt time.Time) {
	c.entries.Store(quote.Symbol, cacheEntry{quote: quote, fetchedAt: fetchedAt})

	if c.horizon <= 0 {
		return
	}
	cutoff := fetchedAt.Add(-c.horizon)
	c.entries.Range(func(key, value interface{}) bool {
		if value.(cacheEntry).fetchedAt.Before(cutoff) {
			c.entries.Delete(key)
			c.log.Debug().Str("symbol", key.(string)).Msg("Purged cache entry past horizon")
		}
		return true
	})
}

// IsFresh reports whether the cached entry for symbol can be served without
// a provider call at time now.
//
// Open market: fresh while now-fetchedAt < openTTL, so repeated page loads
// within the window reuse one quote.
// Closed market: fresh iff the entry was fetched after the last close. A
// post-close quote cannot change until the next open, so it never expires
// over a weekend or holiday. Entries from before the close are stale; the
// coordinator serves them as fallbacks without refetching.
func (c *Cache) IsFresh(symbol string, now time.Time) bool {
	e, ok := c.load(symbol)
	if !ok {
		return false
	}

	if c.calendar.IsOpen(now) {
		return now.Sub(e.fetchedAt) < c.openTTL
	}
	return e.fetchedAt.After(c.calendar.LastClose(now))
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(key, value interface{}) bool {
		n++
		return true
	})
	return n
}
