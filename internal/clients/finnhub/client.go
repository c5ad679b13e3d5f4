// Package finnhub provides a quote provider client for the Finnhub API.
// All provider-specific response parsing lives here; the rest of the system
// only sees domain.Quote values and the transient/permanent error taxonomy.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/backend/internal/domain"
)

// Client for finnhub.io
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Finnhub client. baseURL is overridable for tests.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "finnhub").Logger(),
	}
}

// quoteResponse is Finnhub's /quote payload. Unknown symbols come back as
// all zeros rather than an HTTP error.
type quoteResponse struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// FetchQuote fetches one live quote. Timeouts, 5xx responses, and rate-limit
// responses map to domain.TransientError; everything else surfaces as
// domain.PermanentError.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s", c.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Quote{}, domain.PermanentError{Symbol: symbol, Err: err}
	}
	req.Header.Set("X-Finnhub-Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		// Network failures and timeouts are worth retrying.
		return domain.Quote{}, domain.TransientError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return domain.Quote{}, domain.TransientError{
			Symbol: symbol,
			Err:    fmt.Errorf("provider returned status %d", resp.StatusCode),
		}
	default:
		return domain.Quote{}, domain.PermanentError{
			Symbol: symbol,
			Err:    fmt.Errorf("provider returned status %d", resp.StatusCode),
		}
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Quote{}, domain.TransientError{
			Symbol: symbol,
			Err:    fmt.Errorf("failed to parse quote response: %w", err),
		}
	}

	if payload.Current == 0 && payload.PreviousClose == 0 {
		return domain.Quote{}, domain.PermanentError{
			Symbol: symbol,
			Err:    fmt.Errorf("unknown symbol"),
		}
	}
	if payload.Current < 0 || payload.PreviousClose < 0 {
		return domain.Quote{}, domain.PermanentError{
			Symbol: symbol,
			Err:    fmt.Errorf("provider returned negative price %v", payload.Current),
		}
	}

	asOf := time.Now()
	if payload.Timestamp > 0 {
		asOf = time.Unix(payload.Timestamp, 0)
	}

	quote := domain.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(payload.Current),
		PreviousClose: decimal.NewFromFloat(payload.PreviousClose),
		AsOf:          asOf,
		Provenance:    domain.ProvenanceLive,
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("price", quote.Price.String()).
		Msg("Fetched quote")

	return quote, nil
}
