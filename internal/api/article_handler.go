package api

import (
	"net/http"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /v1/articles
func (h *ArticleHandler) List(c *gin.Context) {
	var filter models.ArticleFilter
	if err := bindQuery(c, &filter); err != nil {
		respondError(c, h.log, err)
		return
	}
	page, err := h.services.Article.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, page)
}

// Create handles POST /v1/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var input models.CreateArticleInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}
	article, err := h.services.Article.Create(c.Request.Context(), currentActor(c), &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusCreated, article)
}

// Get handles GET /v1/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	article, err := h.services.Article.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, article)
}

// GetBySlug handles GET /v1/articles/slug/:slug
func (h *ArticleHandler) GetBySlug(c *gin.Context) {
	article, err := h.services.Article.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, article)
}

// Update handles PATCH /v1/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.UpdateArticleInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, h.log, err)
		return
	}
	article, err := h.services.Article.Update(c.Request.Context(), currentActor(c), id, &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, article)
}

// Delete handles DELETE /v1/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.services.Article.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// transitionFunc is one workflow action without a request body
type transitionFunc func(h *ArticleHandler, c *gin.Context, actor models.Actor, id int64) (*models.Article, error)

func (h *ArticleHandler) runTransition(c *gin.Context, fn transitionFunc) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	article, err := fn(h, c, currentActor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondData(c, http.StatusOK, article)
}

// Submit handles POST /v1/articles/:id/submit
func (h *ArticleHandler) Submit(c *gin.Context) {
	h.runTransition(c, func(h *ArticleHandler, c *gin.Context, actor models.Actor, id int64) (*models.Article, error) {
		return h.services.Article.Submit(c.Request.Context(), actor, id)
	})
}

// StartReview handles POST /v1/articles/:id/review
func (h *ArticleHandler) StartReview(c *gin.Context) {
	h.runTransition(c, func(h *ArticleHandler, c *gin.Context, actor models.Actor, id int64) (*models.Article, error) {
		return h.services.Article.StartReview(c.Request.Context(), actor, id)
	})
}

// Approve handles POST /v1/articles/:id/approve with optional notes
func (h *ArticleHandler) Approve(c *gin.Context) {
	h.runTransition(c, func(h *ArticleHandler, c *gin.Context, actor models.Actor, id int64) (*models.Article, error) {
		var input models.ReviewInput
		if err := bindOptionalJSON(c, &input); err != nil {
			return nil, err
		}
		return h.services.Article.Approve(c.Request.Context(), actor, id, &input)
	})
}

// Reject handles POST /v1/articles/:id/reject with optional notes
func (h *ArticleHandler) Reject(c *gin.Context) {
	h.runTransition(c, func(h *ArticleHandler, c *gin.Context, actor models.Actor, id int64) (*models.Article, error) {
		var input models.ReviewInput
		if err := bindOptionalJSON(c, &input); err != nil {
			return nil, err
		}
		return h.services.Article.Reject(c.Request.Context(), actor, id, &input)
	})
}

// Publish handles POST /v1/articles/:id/publish
func (h *ArticleHandler) Publish(c *gin.Context) {
	h.runTransition(c, func(h *ArticleHandler, c *gin.Context, actor models.Actor, id int64) (*models.Article, error) {
		return h.services.Article.Publish(c.Request.Context(), actor, id)
	})
}

// SetStatus handles PUT /v1/articles/:id/status
func (h *ArticleHandler) SetStatus(c *gin.Context) {
	h.runTransition(c, func(h *ArticleHandler, c *gin.Context, actor models.Actor, id int64) (*models.Article, error) {
		var input models.StatusInput
		if err := bindJSON(c, &input); err != nil {
			return nil, err
		}
		return h.services.Article.SetStatus(c.Request.Context(), actor, id, &input)
	})
}
