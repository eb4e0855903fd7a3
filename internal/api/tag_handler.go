package api

import (
	"net/http"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TagHandler handles tag endpoints
type TagHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewTagHandler creates a new TagHandler
func NewTagHandler(services *service.Services, log zerolog.Logger) *TagHandler {
	return &TagHandler{
		services: services,
		log:      log.With().Str("handler", "tag").Logger(),
	}
}

// List handles GET /v1/tags
func (h *TagHandler) List(c *gin.Context) {
	var filter models.TagFilter
	if err := bindQuery(c, &filter); err != nil {
		respondError(c, h.log, err)
		return
	}
	page, err := h.services.Tag.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, page)
}

// Create handles POST /v1/tags
func (h *TagHandler) Create(c *gin.Context) {
	var input models.CreateTagInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}
	tag, err := h.services.Tag.Create(c.Request.Context(), currentActor(c), &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, tag)
}

// Get handles GET /v1/tags/:id
func (h *TagHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	tag, err := h.services.Tag.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, tag)
}

// Update handles PATCH /v1/tags/:id
func (h *TagHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.UpdateTagInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}
	tag, err := h.services.Tag.Update(c.Request.Context(), currentActor(c), id, &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, tag)
}

// Delete handles DELETE /v1/tags/:id
func (h *TagHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.services.Tag.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
