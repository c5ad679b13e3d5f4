// Package domain provides core domain models and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provenance indicates where a quote's price came from.
type Provenance string

const (
	// ProvenanceLive - price fetched from the provider during this request
	ProvenanceLive Provenance = "LIVE"
	// ProvenanceCached - price served from a still-fresh cache entry
	ProvenanceCached Provenance = "CACHED"
	// ProvenanceStaleFallback - price served from an expired cache entry
	// because the market is closed or the provider is unavailable
	ProvenanceStaleFallback Provenance = "STALE_FALLBACK"
)

// Quote is a single market quote for a symbol. Immutable once constructed;
// the cache and coordinator copy it rather than mutate it.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	AsOf          time.Time       `json:"as_of"`
	Provenance    Provenance      `json:"provenance"`
}

// Holding is one row of the user's portfolio: how much of a symbol they own
// and what they paid per share. Owned by the holdings store; read-only to the
// market data and performance code.
type Holding struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	CostBasis decimal.Decimal `json:"cost_basis"` // per share
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PositionPerformance is the derived view of one holding combined with its
// quote. Recomputed on every request, never persisted.
//
// Pointer fields are nil when the value is not computable: quote-derived
// fields when no quote is available at all, percentage fields when the
// denominator is zero. A nil percentage is distinguishable from a real 0%.
type PositionPerformance struct {
	Symbol             string           `json:"symbol"`
	Quantity           decimal.Decimal  `json:"quantity"`
	CostValue          decimal.Decimal  `json:"cost_value"`
	CurrentPrice       *decimal.Decimal `json:"current_price,omitempty"`
	CurrentValue       *decimal.Decimal `json:"current_value,omitempty"`
	GainLoss           *decimal.Decimal `json:"gain_loss,omitempty"`
	GainLossPercent    *decimal.Decimal `json:"gain_loss_percent,omitempty"`
	DailyChange        *decimal.Decimal `json:"daily_change,omitempty"`
	DailyChangePercent *decimal.Decimal `json:"daily_change_percent,omitempty"`
	QuoteProvenance    Provenance       `json:"quote_provenance,omitempty"`
	QuoteAsOf          *time.Time       `json:"quote_as_of,omitempty"`
	PriceError         string           `json:"price_error,omitempty"`
}

// PortfolioPerformance is the aggregate over all of a user's positions.
// Positions keep the holdings-store order.
type PortfolioPerformance struct {
	UserID               string                `json:"user_id"`
	TotalValue           decimal.Decimal       `json:"total_value"`
	TotalCost            decimal.Decimal       `json:"total_cost"`
	TotalGainLoss        decimal.Decimal       `json:"total_gain_loss"`
	TotalGainLossPercent *decimal.Decimal      `json:"total_gain_loss_percent,omitempty"`
	TotalDailyChange     decimal.Decimal       `json:"total_daily_change"`
	Positions            []PositionPerformance `json:"positions"`
	AsOf                 time.Time             `json:"as_of"`
}
