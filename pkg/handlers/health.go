package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/raagsetu/raag-engine/pkg/config"
)

// PingResponse reports service status and build information.
type PingResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Uptime      string `json:"uptime"`
}

// HealthHandler serves the liveness and version endpoints.
type HealthHandler struct {
	cfg       *config.Config
	logger    *zap.Logger
	startedAt time.Time
}

func NewHealthHandler(cfg *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, logger: logger, startedAt: time.Now()}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health answers load-balancer probes with a bare "ok".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping returns service identity, version, and uptime.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, _ := os.Hostname()

	response := PingResponse{
		Status:      "ok",
		Service:     "raag-engine",
		Version:     h.cfg.Version,
		Environment: h.cfg.Env,
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Uptime:      time.Since(h.startedAt).Round(time.Second).String(),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
