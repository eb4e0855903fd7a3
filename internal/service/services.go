package service

import (
	"context"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/audit"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/config"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/validation"
	"github.com/rs/zerolog"
)

// ArticleService owns the article review workflow. Every operation takes
// the calling actor explicitly; guards fail in the order NotFound,
// Forbidden, Conflict.
type ArticleService interface {
	Create(ctx context.Context, actor models.Actor, input *models.CreateArticleInput) (*models.Article, error)
	Get(ctx context.Context, id int64) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	List(ctx context.Context, filter models.ArticleFilter) (*models.ArticlePage, error)
	Update(ctx context.Context, actor models.Actor, id int64, input *models.UpdateArticleInput) (*models.Article, error)
	Submit(ctx context.Context, actor models.Actor, id int64) (*models.Article, error)
	StartReview(ctx context.Context, actor models.Actor, id int64) (*models.Article, error)
	Approve(ctx context.Context, actor models.Actor, id int64, input *models.ReviewInput) (*models.Article, error)
	Reject(ctx context.Context, actor models.Actor, id int64, input *models.ReviewInput) (*models.Article, error)
	Publish(ctx context.Context, actor models.Actor, id int64) (*models.Article, error)
	SetStatus(ctx context.Context, actor models.Actor, id int64, input *models.StatusInput) (*models.Article, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
}

// CategoryService maintains the category forest
type CategoryService interface {
	Create(ctx context.Context, actor models.Actor, input *models.CreateCategoryInput) (*models.Category, error)
	Update(ctx context.Context, actor models.Actor, id int64, input *models.UpdateCategoryInput) (*models.Category, error)
	Move(ctx context.Context, actor models.Actor, id int64, input *models.MoveCategoryInput) (*models.Category, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
	GetTree(ctx context.Context, filter models.TreeFilter) ([]*models.Category, error)
	GetNode(ctx context.Context, id int64) (*models.Category, error)
	Ancestors(ctx context.Context, id int64) ([]*models.Category, error)
	List(ctx context.Context, filter models.TreeFilter) ([]*models.Category, error)
}

// TagService manages flat tags
type TagService interface {
	Create(ctx context.Context, actor models.Actor, input *models.CreateTagInput) (*models.Tag, error)
	Update(ctx context.Context, actor models.Actor, id int64, input *models.UpdateTagInput) (*models.Tag, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
	Get(ctx context.Context, id int64) (*models.Tag, error)
	List(ctx context.Context, filter models.TagFilter) (*models.TagPage, error)
}

// AuditService reads persisted audit events
type AuditService interface {
	List(ctx context.Context, actor models.Actor, filter models.AuditFilter) (*models.AuditPage, error)
}

// StatsService summarizes stored content
type StatsService interface {
	Get(ctx context.Context) (*models.Stats, error)
}

// Services holds all service interfaces
type Services struct {
	Article  ArticleService
	Category CategoryService
	Tag      TagService
	Audit    AuditService
	Stats    StatsService
}

// serviceDeps are the collaborators shared by every service
type serviceDeps struct {
	validate   *validation.Validator
	recorder   audit.Recorder
	metrics    *metrics.Metrics
	readingWPM int
	log        zerolog.Logger
	now        func() time.Time
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, recorder audit.Recorder, m *metrics.Metrics, log zerolog.Logger) *Services {
	if recorder == nil {
		recorder = audit.Nop()
	}
	deps := serviceDeps{
		validate:   validation.NewValidator(),
		recorder:   recorder,
		metrics:    m,
		readingWPM: cfg.Content.ReadingWPM,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}

	return &Services{
		Article:  newArticleService(repos, deps),
		Category: newCategoryService(repos.Category, deps),
		Tag:      newTagService(repos.Tag, deps),
		Audit:    &auditService{repo: repos.Audit},
		Stats:    &statsService{repos: repos},
	}
}

type auditService struct {
	repo repository.AuditRepository
}

// List returns audit events newest first. Admin only.
func (s *auditService) List(ctx context.Context, actor models.Actor, filter models.AuditFilter) (*models.AuditPage, error) {
	if err := requireAdmin(actor, "read audit logs"); err != nil {
		return nil, err
	}
	filter.Normalize()
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list audit logs")
	}
	return &models.AuditPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

type statsService struct {
	repos *repository.Repositories
}

// Get counts articles per status (every status present, zero included),
// categories and tags.
func (s *statsService) Get(ctx context.Context) (*models.Stats, error) {
	byStatus, err := s.repos.Article.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to count articles")
	}
	stats := &models.Stats{ArticlesByStatus: make(map[models.ArticleStatus]int, len(models.ArticleStatuses))}
	for _, status := range models.ArticleStatuses {
		stats.ArticlesByStatus[status] = byStatus[status]
	}
	if stats.Categories, err = s.repos.Category.Count(ctx); err != nil {
		return nil, apperr.Wrap(err, "failed to count categories")
	}
	if stats.Tags, err = s.repos.Tag.Count(ctx); err != nil {
		return nil, apperr.Wrap(err, "failed to count tags")
	}
	return stats, nil
}
