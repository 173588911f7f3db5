package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/gameshop/internal/api/response"
	"github.com/mcoot/gameshop/internal/storage"
)

// healthTimeout bounds the storage ping behind /health
const healthTimeout = 2 * time.Second

// ServiceHandler serves the index and health endpoints
type ServiceHandler struct {
	name    string
	version string
	storage storage.Storage
	logger  *slog.Logger
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(gameName, version string, storage storage.Storage, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{
		name:    "ShopAPI - " + gameName,
		version: version,
		storage: storage,
		logger:  logger,
	}
}

// Index handles GET /
func (h *ServiceHandler) Index(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.IndexResponse{Name: h.name, Version: h.version})
}

// Health handles GET /health
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		response.JSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "unavailable"})
		return
	}
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
