// Package handlers provides HTTP handlers for portfolio and holdings requests.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/backend/internal/domain"
	"github.com/stockfolio/backend/internal/modules/holdings"
	"github.com/stockfolio/backend/internal/modules/marketdata"
	"github.com/stockfolio/backend/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service      *portfolio.Service
	holdingsRepo *holdings.Repository
	calendar     *marketdata.Calendar
	clock        domain.Clock
	log          zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(
	service *portfolio.Service,
	holdingsRepo *holdings.Repository,
	calendar *marketdata.Calendar,
	clock domain.Clock,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:      service,
		holdingsRepo: holdingsRepo,
		calendar:     calendar,
		clock:        clock,
		log:          log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPerformance returns the full performance view for one user.
// Per-symbol quote failures show up as rows with a price_error field; the
// response itself is still 200.
func (h *Handler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "userID is required")
		return
	}

	perf, err := h.service.GetPortfolioPerformance(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user", userID).Msg("Failed to compute portfolio performance")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, perf)
}

// HandleListHoldings returns the user's raw holdings without quotes.
func (h *Handler) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	list, err := h.holdingsRepo.GetByUser(userID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.Holding{}
	}
	h.writeJSON(w, http.StatusOK, list)
}

// holdingRequest is the write payload for holdings. Quantity and cost basis
// arrive as strings so values like 0.1 survive exactly.
type holdingRequest struct {
	Symbol    string `json:"symbol"`
	Quantity  string `json:"quantity"`
	CostBasis string `json:"cost_basis"`
}

func (req *holdingRequest) decimals() (quantity, costBasis decimal.Decimal, err error) {
	quantity, err = decimal.NewFromString(req.Quantity)
	if err != nil {
		return
	}
	costBasis, err = decimal.NewFromString(req.CostBasis)
	return
}

// HandleAddHolding creates a holding for the user.
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quantity, costBasis, err := req.decimals()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "quantity and cost_basis must be decimal strings")
		return
	}

	holding, err := h.holdingsRepo.Add(userID, req.Symbol, quantity, costBasis)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, holding)
}

// HandleUpdateHolding updates quantity and cost basis of one holding.
func (h *Handler) HandleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "holdingID")

	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quantity, costBasis, err := req.decimals()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "quantity and cost_basis must be decimal strings")
		return
	}

	holding, err := h.holdingsRepo.Update(id, quantity, costBasis)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, holding)
}

// HandleDeleteHolding removes one holding.
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "holdingID")
	if err := h.holdingsRepo.Delete(id); err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleMarketStatus reports the calendar's view of the exchange.
func (h *Handler) HandleMarketStatus(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"open":       h.calendar.IsOpen(now),
		"last_close": h.calendar.LastClose(now),
		"next_open":  h.calendar.NextOpen(now),
		"as_of":      now,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
