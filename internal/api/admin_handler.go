package api

import (
	"net/http"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminHandler serves audit logs and content statistics
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// AuditLogs handles GET /v1/audit-logs
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	var filter models.AuditFilter
	if err := bindQuery(c, &filter); err != nil {
		respondError(c, h.log, err)
		return
	}
	page, err := h.services.Audit.List(c.Request.Context(), currentActor(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, page)
}

// Stats handles GET /v1/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.services.Stats.Get(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}
