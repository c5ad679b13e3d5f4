package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/stockfolio/backend/internal/database"
)

// SystemHandlers serves process and database health endpoints.
type SystemHandlers struct {
	log        zerolog.Logger
	holdingsDB *database.DB
	startTime  time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, holdingsDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:        log.With().Str("handler", "system").Logger(),
		holdingsDB: holdingsDB,
		startTime:  time.Now(),
	}
}

// HandleHealth returns process stats and database health. Intended for
// monitoring; failures degrade individual fields rather than the endpoint.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp["memory_used_percent"] = vm.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to read memory stats")
	}

	// Instantaneous CPU sample; a zero interval avoids blocking the request.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		resp["cpu_percent"] = percents[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU stats")
	}

	if h.holdingsDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := h.holdingsDB.HealthCheck(ctx); err != nil {
			dbStatus = err.Error()
			resp["status"] = "degraded"
		}
		resp["database"] = dbStatus

		if stats, err := h.holdingsDB.GetStats(); err == nil {
			resp["database_size_bytes"] = stats.SizeBytes
		}
	}

	status := http.StatusOK
	if resp["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode health response")
	}
}
