package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/config"
	"github.com/alfagnish/mergington-activities/internal/events"
)

// SystemHandler provides endpoints for health checks and the effective
// runtime configuration.
type SystemHandler struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	hub     *events.Hub
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(cfg *config.Config, c *catalog.Catalog, hub *events.Hub) *SystemHandler {
	return &SystemHandler{cfg: cfg, catalog: c, hub: hub}
}

// Routes registers all system routes on the given chi router.
func (h *SystemHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/config", h.GetConfig)
}

// Health reports liveness along with catalog and subscriber counts.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"activities":  h.catalog.Len(),
		"subscribers": h.hub.Len(),
	})
}

// GetConfig returns the non-secret parts of the running configuration.
func (h *SystemHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listen_addr":      h.cfg.ListenAddr,
		"grpc_addr":        h.cfg.GRPCAddr,
		"static_dir":       h.cfg.StaticDir,
		"log_level":        h.cfg.LogLevel,
		"log_format":       h.cfg.LogFormat,
		"allowed_origins":  h.cfg.AllowedOrigins,
		"shutdown_timeout": h.cfg.ShutdownTimeout.String(),
		"ws_buffer":        h.cfg.WSBuffer,
	})
}
