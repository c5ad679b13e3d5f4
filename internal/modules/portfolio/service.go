package portfolio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stockfolio/backend/internal/domain"
	"github.com/stockfolio/backend/internal/modules/marketdata"
)

// Service is the portfolio read path: holdings lookup, quote resolution,
// performance calculation. It holds no mutable state of its own.
type Service struct {
	holdings domain.HoldingsSource
	quotes   domain.QuoteResolver
	clock    domain.Clock
	log      zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	holdings domain.HoldingsSource,
	quotes domain.QuoteResolver,
	clock domain.Clock,
	log zerolog.Logger,
) *Service {
	return &Service{
		holdings: holdings,
		quotes:   quotes,
		clock:    clock,
		log:      log.With().Str("service", "portfolio").Logger(),
	}
}

// GetPortfolioPerformance computes the full performance view for one user.
// Quote failures are scoped to their symbol: the affected rows carry a price
// error and the rest of the portfolio is returned normally. Only a holdings
// store failure fails the whole call.
func (s *Service) GetPortfolioPerformance(ctx context.Context, userID string) (domain.PortfolioPerformance, error) {
	holdings, err := s.holdings.GetByUser(userID)
	if err != nil {
		return domain.PortfolioPerformance{}, fmt.Errorf("failed to get holdings: %w", err)
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}

	results := s.quotes.Resolve(ctx, symbols)

	positions := make([]domain.PositionPerformance, 0, len(holdings))
	for _, h := range holdings {
		res, ok := results[marketdata.NormalizeSymbol(h.Symbol)]
		switch {
		case !ok:
			positions = append(positions, UnpricedPosition(h, nil))
		case res.Err != nil:
			s.log.Warn().Err(res.Err).Str("symbol", h.Symbol).Msg("No quote for holding")
			positions = append(positions, UnpricedPosition(h, res.Err))
		default:
			pos, err := Position(h, res.Quote)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Invalid position input")
				positions = append(positions, UnpricedPosition(h, err))
				continue
			}
			positions = append(positions, pos)
		}
	}

	perf := Portfolio(userID, positions)
	perf.AsOf = s.clock.Now()
	return perf, nil
}
