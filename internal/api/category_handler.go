package api

import (
	"net/http"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(services *service.Services, log zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{
		services: services,
		log:      log.With().Str("handler", "category").Logger(),
	}
}

// List handles GET /v1/categories
func (h *CategoryHandler) List(c *gin.Context) {
	var filter models.TreeFilter
	if err := bindQuery(c, &filter); err != nil {
		respondError(c, h.log, err)
		return
	}
	categories, err := h.services.Category.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, categories)
}

// Tree handles GET /v1/categories/tree
func (h *CategoryHandler) Tree(c *gin.Context) {
	var filter models.TreeFilter
	if err := bindQuery(c, &filter); err != nil {
		respondError(c, h.log, err)
		return
	}
	tree, err := h.services.Category.GetTree(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, tree)
}

// Create handles POST /v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var input models.CreateCategoryInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}
	category, err := h.services.Category.Create(c.Request.Context(), currentActor(c), &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, category)
}

// Get handles GET /v1/categories/:id, returning the node with its children
func (h *CategoryHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	category, err := h.services.Category.GetNode(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, category)
}

// Ancestors handles GET /v1/categories/:id/ancestors
func (h *CategoryHandler) Ancestors(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ancestors, err := h.services.Category.Ancestors(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, ancestors)
}

// Update handles PATCH /v1/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.UpdateCategoryInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}
	category, err := h.services.Category.Update(c.Request.Context(), currentActor(c), id, &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, category)
}

// Move handles PUT /v1/categories/:id/parent
func (h *CategoryHandler) Move(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.MoveCategoryInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}
	category, err := h.services.Category.Move(c.Request.Context(), currentActor(c), id, &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, category)
}

// Delete handles DELETE /v1/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.services.Category.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
