package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/isdelr/taskdeck-be/internal/api/respond"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthHandler reports process and store health.
type HealthHandler struct {
	db      *sql.DB
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed to reach the store")
		respond.Fail(w, http.StatusServiceUnavailable, "Store unreachable", "")
		return
	}

	data := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		data["memory"] = map[string]interface{}{
			"totalMB":     vm.Total / 1024 / 1024,
			"usedMB":      vm.Used / 1024 / 1024,
			"usedPercent": vm.UsedPercent,
		}
	}

	respond.OK(w, http.StatusOK, "Service healthy", data)
}
