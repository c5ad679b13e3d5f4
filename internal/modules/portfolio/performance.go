// Package portfolio turns holdings and quotes into performance figures and
// exposes the portfolio service used by the HTTP layer.
package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/backend/internal/domain"
)

// Arithmetic scales. All money values are rounded to currencyScale with the
// same rounding rule, so gainLoss == currentValue - costValue holds exactly
// and sums across positions carry no drift.
const (
	currencyScale = 2
	priceScale    = 4
	percentScale  = 4
)

var oneHundred = decimal.NewFromInt(100)

// Position combines one holding with its quote into a PositionPerformance.
// Pure function, fixed-point arithmetic throughout.
//
// quantity == 0 yields zero values with nil percentages. A zero cost basis
// makes gainLossPercent nil rather than infinite; a zero previous close does
// the same for dailyChangePercent.
func Position(h domain.Holding, q domain.Quote) (domain.PositionPerformance, error) {
	if h.Quantity.IsNegative() {
		return domain.PositionPerformance{}, fmt.Errorf("negative quantity %s for %s", h.Quantity, h.Symbol)
	}
	if h.CostBasis.IsNegative() {
		return domain.PositionPerformance{}, fmt.Errorf("negative cost basis %s for %s", h.CostBasis, h.Symbol)
	}
	if q.Price.IsNegative() || q.PreviousClose.IsNegative() {
		return domain.PositionPerformance{}, fmt.Errorf("negative price in quote for %s", h.Symbol)
	}

	costValue := h.Quantity.Mul(h.CostBasis).Round(currencyScale)
	currentValue := h.Quantity.Mul(q.Price).Round(currencyScale)
	gainLoss := currentValue.Sub(costValue)
	dailyChange := q.Price.Sub(q.PreviousClose).Round(priceScale)

	var gainLossPercent *decimal.Decimal
	if !costValue.IsZero() {
		p := gainLoss.Mul(oneHundred).DivRound(costValue, percentScale)
		gainLossPercent = &p
	}

	var dailyChangePercent *decimal.Decimal
	if !q.PreviousClose.IsZero() {
		p := dailyChange.Mul(oneHundred).DivRound(q.PreviousClose, percentScale)
		dailyChangePercent = &p
	}

	price := q.Price
	asOf := q.AsOf
	return domain.PositionPerformance{
		Symbol:             h.Symbol,
		Quantity:           h.Quantity,
		CostValue:          costValue,
		CurrentPrice:       &price,
		CurrentValue:       &currentValue,
		GainLoss:           &gainLoss,
		GainLossPercent:    gainLossPercent,
		DailyChange:        &dailyChange,
		DailyChangePercent: dailyChangePercent,
		QuoteProvenance:    q.Provenance,
		QuoteAsOf:          &asOf,
	}, nil
}

// UnpricedPosition builds the row for a holding whose quote could not be
// resolved. Cost data is still shown; everything price-derived is absent and
// the error is carried so the caller can render "price unavailable".
func UnpricedPosition(h domain.Holding, err error) domain.PositionPerformance {
	msg := "no quote data"
	if err != nil {
		msg = err.Error()
	}
	return domain.PositionPerformance{
		Symbol:     h.Symbol,
		Quantity:   h.Quantity,
		CostValue:  h.Quantity.Mul(h.CostBasis).Round(currencyScale),
		PriceError: msg,
	}
}

// Portfolio aggregates position rows. Totals are arithmetic sums and the
// aggregate percentage is computed from those totals, never by averaging
// per-position percentages. Rows without price data are excluded from every
// total so a single failed symbol cannot skew the aggregate.
func Portfolio(userID string, positions []domain.PositionPerformance) domain.PortfolioPerformance {
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	totalGainLoss := decimal.Zero
	totalDailyChange := decimal.Zero

	for _, p := range positions {
		if p.CurrentValue == nil {
			continue
		}
		totalValue = totalValue.Add(*p.CurrentValue)
		totalCost = totalCost.Add(p.CostValue)
		totalGainLoss = totalGainLoss.Add(*p.GainLoss)
		if p.DailyChange != nil {
			totalDailyChange = totalDailyChange.Add(p.Quantity.Mul(*p.DailyChange).Round(currencyScale))
		}
	}

	var totalGainLossPercent *decimal.Decimal
	if !totalCost.IsZero() {
		p := totalGainLoss.Mul(oneHundred).DivRound(totalCost, percentScale)
		totalGainLossPercent = &p
	}

	return domain.PortfolioPerformance{
		UserID:               userID,
		TotalValue:           totalValue,
		TotalCost:            totalCost,
		TotalGainLoss:        totalGainLoss,
		TotalGainLossPercent: totalGainLossPercent,
		TotalDailyChange:     totalDailyChange,
		Positions:            positions,
	}
}
