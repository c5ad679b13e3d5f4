package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/backend/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", zerolog.Nop())
}

func TestFetchQuote_Success(t *testing.T) {
	var gotPath, gotSymbol, gotToken string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSymbol = r.URL.Query().Get("symbol")
		gotToken = r.Header.Get("X-Finnhub-Token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"c": 150.25, "pc": 148.5, "t": 1756500000}`))
	})

	quote, err := client.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "/quote", gotPath)
	assert.Equal(t, "AAPL", gotSymbol)
	assert.Equal(t, "test-key", gotToken)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("150.25")))
	assert.True(t, quote.PreviousClose.Equal(decimal.RequireFromString("148.5")))
	assert.True(t, quote.AsOf.Equal(time.Unix(1756500000, 0)))
	assert.Equal(t, domain.ProvenanceLive, quote.Provenance)
}

func TestFetchQuote_MissingTimestampDefaultsToNow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c": 150.25, "pc": 148.5}`))
	})

	before := time.Now()
	quote, err := client.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.False(t, quote.AsOf.Before(before))
}

func TestFetchQuote_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, true},
		{"server error", http.StatusInternalServerError, `{}`, true},
		{"bad gateway", http.StatusBadGateway, `{}`, true},
		{"forbidden", http.StatusForbidden, `{}`, false},
		{"not found", http.StatusNotFound, `{}`, false},
		{"malformed body", http.StatusOK, `{"c": not-json`, true},
		{"unknown symbol zeros", http.StatusOK, `{"c": 0, "pc": 0, "t": 0}`, false},
		{"negative price", http.StatusOK, `{"c": -1.5, "pc": 148.5}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.FetchQuote(context.Background(), "AAPL")
			require.Error(t, err)
			if tt.transient {
				assert.True(t, domain.IsTransient(err), "expected transient, got: %v", err)
			} else {
				assert.True(t, domain.IsPermanent(err), "expected permanent, got: %v", err)
			}
		})
	}
}

func TestFetchQuote_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	client := NewClient(srv.URL, "test-key", zerolog.Nop())

	_, err := client.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestFetchQuote_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchQuote(ctx, "AAPL")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}
