// Package main is the entry point for the portfolio tracking backend.
//
// The service keeps a user's stock holdings in SQLite and computes live
// portfolio performance on demand. Market quotes are cached with
// market-hours-aware TTLs and fetched strictly on request: there is no
// background poller anywhere, so an idle server makes zero provider calls
// and a closed market is never polled.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/stockfolio/backend/internal/clients/finnhub"
	"github.com/stockfolio/backend/internal/config"
	"github.com/stockfolio/backend/internal/database"
	"github.com/stockfolio/backend/internal/domain"
	"github.com/stockfolio/backend/internal/modules/holdings"
	"github.com/stockfolio/backend/internal/modules/marketdata"
	"github.com/stockfolio/backend/internal/modules/portfolio"
	portfoliohandlers "github.com/stockfolio/backend/internal/modules/portfolio/handlers"
	"github.com/stockfolio/backend/internal/server"
	"github.com/stockfolio/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting portfolio backend")

	holdingsDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "holdings.db"),
		Name: "holdings",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open holdings database")
	}
	defer holdingsDB.Close()

	holdingsRepo, err := holdings.NewRepository(holdingsDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize holdings repository")
	}

	loc, err := time.LoadLocation(cfg.MarketTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.MarketTimezone).Msg("Invalid market timezone")
	}
	openTime, err := marketdata.ParseTimeOfDay(cfg.MarketOpen)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid MARKET_OPEN")
	}
	closeTime, err := marketdata.ParseTimeOfDay(cfg.MarketClose)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid MARKET_CLOSE")
	}

	calendar := marketdata.NewCalendar(marketdata.CalendarConfig{
		Location: loc,
		Open:     openTime,
		Close:    closeTime,
		Holidays: append(marketdata.DefaultHolidays(), cfg.Holidays...),
	}, log)

	clock := domain.SystemClock{}
	cache := marketdata.NewCache(calendar, cfg.OpenMarketTTL, cfg.CacheHorizon, log)
	provider := finnhub.NewClient(cfg.FinnhubBaseURL, cfg.FinnhubAPIKey, log)
	coordinator := marketdata.NewCoordinator(cache, calendar, provider, clock, marketdata.CoordinatorConfig{
		FetchAttempts:   cfg.FetchAttempts,
		RetryBase:       cfg.RetryBase,
		RateLimitCalls:  cfg.RateLimitCalls,
		RateLimitWindow: cfg.RateLimitWindow,
	}, log)

	resolver := marketdata.WithTimeout(coordinator, cfg.ResolveTimeout)
	portfolioService := portfolio.NewService(holdingsRepo, resolver, clock, log)
	portfolioHandler := portfoliohandlers.NewHandler(portfolioService, holdingsRepo, calendar, clock, log)

	srv := server.New(server.Config{
		Log:              log,
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		HoldingsDB:       holdingsDB,
		PortfolioHandler: portfolioHandler,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
