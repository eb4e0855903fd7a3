package service

import (
	"context"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/audit"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/content"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/validation"
	"github.com/rs/zerolog"
)

const (
	actionCreate      = "create"
	actionUpdate      = "update"
	actionDelete      = "delete"
	actionSubmit      = "submit"
	actionStartReview = "start_review"
	actionApprove     = "approve"
	actionReject      = "reject"
	actionPublish     = "publish"
	actionSetStatus   = "set_status"
	actionMove        = "move"
)

// transitionRule guards one workflow action. permit failing is Forbidden,
// from failing is Conflict; permit is checked first.
type transitionRule struct {
	permit func(actor models.Actor, a *models.Article) bool
	from   func(actor models.Actor, status models.ArticleStatus) bool
	to     models.ArticleStatus
}

func ownerOrAdmin(actor models.Actor, a *models.Article) bool {
	return actor.IsAdmin() || actor.Owns(a.AuthorID)
}

func adminOnly(actor models.Actor, _ *models.Article) bool {
	return actor.IsAdmin()
}

func only(status models.ArticleStatus) func(models.Actor, models.ArticleStatus) bool {
	return func(_ models.Actor, s models.ArticleStatus) bool { return s == status }
}

func inReview(_ models.Actor, s models.ArticleStatus) bool {
	return s.InReview()
}

// Admins publish from any state; owners only once approved.
func publishable(actor models.Actor, s models.ArticleStatus) bool {
	return actor.IsAdmin() || s == models.StatusApproved
}

var lifecycle = map[string]transitionRule{
	actionSubmit:      {permit: ownerOrAdmin, from: only(models.StatusDraft), to: models.StatusSubmitted},
	actionStartReview: {permit: adminOnly, from: only(models.StatusSubmitted), to: models.StatusUnderReview},
	actionApprove:     {permit: adminOnly, from: inReview, to: models.StatusApproved},
	actionReject:      {permit: adminOnly, from: inReview, to: models.StatusRejected},
	actionPublish:     {permit: ownerOrAdmin, from: publishable, to: models.StatusPublished},
}

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos    *repository.Repositories
	validate *validation.Validator
	recorder audit.Recorder
	metrics  *metrics.Metrics
	wpm      int
	log      zerolog.Logger
	now      func() time.Time
}

func newArticleService(repos *repository.Repositories, deps serviceDeps) *articleService {
	return &articleService{
		repos:    repos,
		validate: deps.validate,
		recorder: deps.recorder,
		metrics:  deps.metrics,
		wpm:      deps.readingWPM,
		log:      deps.log.With().Str("service", "article").Logger(),
		now:      deps.now,
	}
}

func (s *articleService) finish(ctx context.Context, actor models.Actor, action string, id int64, err error, meta map[string]any) {
	s.metrics.ArticleTransition(action, err)
	recordAudit(ctx, s.recorder, actor, entityArticle, action, id, err, meta)
	logFailure(s.log, err, action, id)
}

func (s *articleService) load(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load article %d", id)
	}
	if article == nil {
		return nil, apperr.NotFound("article %d not found", id)
	}
	return article, nil
}

// Get returns one article
func (s *articleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	return s.load(ctx, id)
}

// GetBySlug returns the article with slug
func (s *articleService) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.repos.Article.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load article %q", slug)
	}
	if article == nil {
		return nil, apperr.NotFound("article %q not found", slug)
	}
	return article, nil
}

// List returns one page of articles
func (s *articleService) List(ctx context.Context, filter models.ArticleFilter) (*models.ArticlePage, error) {
	if filter.Status != "" && !models.ArticleStatus(filter.Status).IsValid() {
		return nil, apperr.Invalid("unknown status %q", filter.Status).WithDetail("status", "must be a known article status")
	}
	filter.Normalize()
	items, total, err := s.repos.Article.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list articles")
	}
	return &models.ArticlePage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// Create stores a new draft owned by actor
func (s *articleService) Create(ctx context.Context, actor models.Actor, input *models.CreateArticleInput) (article *models.Article, err error) {
	defer func() {
		var id int64
		if article != nil {
			id = article.ID
		}
		s.finish(ctx, actor, actionCreate, id, err, map[string]any{"title": input.Title})
	}()

	if actor.ID == 0 {
		return nil, apperr.Forbidden("an authenticated actor is required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	slug, err := resolveSlug(input.Slug, input.Title, articleSlugLen)
	if err != nil {
		return nil, err
	}
	taken, err := s.repos.Article.SlugExists(ctx, slug, 0)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to check slug")
	}
	if taken {
		return nil, apperr.Conflict("slug %q is already in use", slug).WithDetail("slug", slug)
	}

	categoryIDs := uniqueIDs(input.CategoryIDs)
	tagIDs := uniqueIDs(input.TagIDs)
	if err := s.checkReferences(ctx, categoryIDs, tagIDs); err != nil {
		return nil, err
	}

	a := &models.Article{
		Title:           input.Title,
		Subtitle:        strOrNil(input.Subtitle),
		Slug:            slug,
		Excerpt:         strOrNil(input.Excerpt),
		Content:         input.Content,
		ContentHTML:     strOrNil(input.ContentHTML),
		MetaTitle:       strOrNil(input.MetaTitle),
		MetaDescription: strOrNil(input.MetaDescription),
		MetaKeywords:    strOrNil(input.MetaKeywords),
		ScheduledAt:     input.ScheduledAt,
		Status:          models.StatusDraft,
		AuthorID:        actor.ID,
		CategoryIDs:     categoryIDs,
		TagIDs:          tagIDs,
	}
	if err := s.refreshContent(a, input.ContentHTML == nil); err != nil {
		return nil, err
	}

	if err := s.repos.Article.Create(ctx, a); err != nil {
		return nil, storeError(err, "article")
	}

	s.log.Info().Int64("id", a.ID).Str("slug", a.Slug).Int64("author_id", a.AuthorID).Msg("Article created")
	return a, nil
}

// Update applies a partial update. Non-admin owners may edit only while
// the article is a draft or submitted, and may only move it between those
// two states.
func (s *articleService) Update(ctx context.Context, actor models.Actor, id int64, input *models.UpdateArticleInput) (article *models.Article, err error) {
	meta := map[string]any{}
	defer func() { s.finish(ctx, actor, actionUpdate, id, err, meta) }()

	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownerOrAdmin(actor, a) {
		return nil, apperr.Forbidden("actor %d may not edit article %d", actor.ID, id)
	}
	if !actor.IsAdmin() {
		if input.Status != nil && !input.Status.AuthorEditable() {
			return nil, apperr.Forbidden("only admins may set status %s", *input.Status)
		}
		if !a.Status.AuthorEditable() {
			return nil, apperr.Conflict("article in status %s can no longer be edited by its author", a.Status).
				WithDetail("status", a.Status)
		}
	}

	if err := s.applySlug(ctx, a, input); err != nil {
		return nil, err
	}

	if input.Title != nil {
		a.Title = *input.Title
	}
	if input.Subtitle != nil {
		a.Subtitle = strOrNil(input.Subtitle)
	}
	if input.Excerpt != nil {
		a.Excerpt = strOrNil(input.Excerpt)
	}
	if input.MetaTitle != nil {
		a.MetaTitle = strOrNil(input.MetaTitle)
	}
	if input.MetaDescription != nil {
		a.MetaDescription = strOrNil(input.MetaDescription)
	}
	if input.MetaKeywords != nil {
		a.MetaKeywords = strOrNil(input.MetaKeywords)
	}
	if input.ScheduledAt != nil {
		a.ScheduledAt = input.ScheduledAt
	}

	if input.Content != nil || input.ContentHTML != nil {
		if input.Content != nil {
			a.Content = input.Content
		}
		if input.ContentHTML != nil {
			a.ContentHTML = strOrNil(input.ContentHTML)
		}
		if err := s.refreshContent(a, input.Content != nil && input.ContentHTML == nil); err != nil {
			return nil, err
		}
		meta["content_changed"] = true
	}

	if input.CategoryIDs != nil || input.TagIDs != nil {
		categoryIDs, tagIDs := a.CategoryIDs, a.TagIDs
		if input.CategoryIDs != nil {
			categoryIDs = uniqueIDs(*input.CategoryIDs)
		}
		if input.TagIDs != nil {
			tagIDs = uniqueIDs(*input.TagIDs)
		}
		if err := s.checkReferences(ctx, categoryIDs, tagIDs); err != nil {
			return nil, err
		}
		a.CategoryIDs, a.TagIDs = categoryIDs, tagIDs
	}

	if input.Status != nil && *input.Status != a.Status {
		meta["from"], meta["to"] = a.Status, *input.Status
		a.Status = *input.Status
		s.markPublished(a)
	}

	if err := s.repos.Article.Update(ctx, a); err != nil {
		return nil, storeError(err, "article")
	}

	s.log.Info().Int64("id", a.ID).Str("status", string(a.Status)).Msg("Article updated")
	return a, nil
}

// applySlug handles explicit slugs and title-driven regeneration. A
// regenerated slug that collides with another article keeps the old slug.
func (s *articleService) applySlug(ctx context.Context, a *models.Article, input *models.UpdateArticleInput) error {
	if input.Slug != nil && *input.Slug != "" {
		slug, err := resolveSlug(input.Slug, "", articleSlugLen)
		if err != nil {
			return err
		}
		if slug == a.Slug {
			return nil
		}
		taken, err := s.repos.Article.SlugExists(ctx, slug, a.ID)
		if err != nil {
			return apperr.Wrap(err, "failed to check slug")
		}
		if taken {
			return apperr.Conflict("slug %q is already in use", slug).WithDetail("slug", slug)
		}
		a.Slug = slug
		return nil
	}

	if input.Title == nil || *input.Title == a.Title {
		return nil
	}
	candidate := content.SlugifyMax(*input.Title, articleSlugLen)
	if candidate == "" || candidate == a.Slug {
		return nil
	}
	taken, err := s.repos.Article.SlugExists(ctx, candidate, a.ID)
	if err != nil {
		return apperr.Wrap(err, "failed to check slug")
	}
	if !taken {
		a.Slug = candidate
	}
	return nil
}

// refreshContent validates the document, optionally re-renders the HTML
// mirror from it and recomputes the derived stats.
func (s *articleService) refreshContent(a *models.Article, renderHTML bool) error {
	doc, err := content.ParseDocument(a.Content)
	if err != nil {
		return apperr.Invalid("content is not a valid document: %v", err).WithDetail("content", "is invalid")
	}
	if doc == nil {
		a.Content = nil
	}

	if renderHTML {
		a.ContentHTML = nil
		if doc != nil {
			rendered, err := content.RenderHTML(doc)
			if err != nil {
				return apperr.Wrap(err, "failed to render article html")
			}
			a.ContentHTML = strOrNil(&rendered)
		}
	}

	var mirror string
	if a.ContentHTML != nil {
		mirror = *a.ContentHTML
	}
	plain, err := content.Extract(a.Content, mirror)
	if err != nil {
		return apperr.Invalid("content cannot be read: %v", err).WithDetail("content_html", "is invalid")
	}

	stats := content.ComputeStats(plain, s.wpm)
	a.WordCount = stats.WordCount
	a.CharacterCount = stats.CharacterCount
	a.ReadingTime = stats.ReadingTime
	return nil
}

func (s *articleService) checkReferences(ctx context.Context, categoryIDs, tagIDs []int64) error {
	missing, err := s.repos.Category.MissingIDs(ctx, categoryIDs)
	if err != nil {
		return apperr.Wrap(err, "failed to check categories")
	}
	if len(missing) > 0 {
		return apperr.NotFound("categories not found: %v", missing).WithDetail("category_ids", missing)
	}
	missing, err = s.repos.Tag.MissingIDs(ctx, tagIDs)
	if err != nil {
		return apperr.Wrap(err, "failed to check tags")
	}
	if len(missing) > 0 {
		return apperr.NotFound("tags not found: %v", missing).WithDetail("tag_ids", missing)
	}
	return nil
}

// markPublished sets publishedAt the first time an article is published
func (s *articleService) markPublished(a *models.Article) {
	if a.Status == models.StatusPublished && a.PublishedAt == nil {
		now := s.now()
		a.PublishedAt = &now
	}
}

func (s *articleService) Submit(ctx context.Context, actor models.Actor, id int64) (*models.Article, error) {
	return s.transition(ctx, actor, id, actionSubmit, nil)
}

func (s *articleService) StartReview(ctx context.Context, actor models.Actor, id int64) (*models.Article, error) {
	return s.transition(ctx, actor, id, actionStartReview, nil)
}

func (s *articleService) Approve(ctx context.Context, actor models.Actor, id int64, input *models.ReviewInput) (*models.Article, error) {
	return s.transition(ctx, actor, id, actionApprove, input)
}

func (s *articleService) Reject(ctx context.Context, actor models.Actor, id int64, input *models.ReviewInput) (*models.Article, error) {
	return s.transition(ctx, actor, id, actionReject, input)
}

func (s *articleService) Publish(ctx context.Context, actor models.Actor, id int64) (*models.Article, error) {
	return s.transition(ctx, actor, id, actionPublish, nil)
}

// transition runs one guarded workflow action
func (s *articleService) transition(ctx context.Context, actor models.Actor, id int64, action string, review *models.ReviewInput) (article *models.Article, err error) {
	meta := map[string]any{}
	defer func() { s.finish(ctx, actor, action, id, err, meta) }()

	rule := lifecycle[action]
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rule.permit(actor, a) {
		return nil, apperr.Forbidden("actor %d may not %s article %d", actor.ID, action, id)
	}
	if !rule.from(actor, a.Status) {
		return nil, apperr.Conflict("cannot %s an article in status %s", action, a.Status).
			WithDetail("status", a.Status)
	}

	meta["from"], meta["to"] = a.Status, rule.to
	a.Status = rule.to
	switch rule.to {
	case models.StatusApproved, models.StatusRejected:
		now := s.now()
		reviewer := actor.ID
		a.ReviewedBy = &reviewer
		a.ReviewedAt = &now
		a.ReviewNotes = nil
		if review != nil {
			a.ReviewNotes = strOrNil(review.Notes)
		}
	case models.StatusPublished:
		s.markPublished(a)
	}

	if err := s.repos.Article.Update(ctx, a); err != nil {
		return nil, storeError(err, "article")
	}

	s.log.Info().Int64("id", a.ID).Str("action", action).Str("status", string(a.Status)).Msg("Article status changed")
	return a, nil
}

// SetStatus is the administrative override. It bypasses the workflow but
// still sets publishedAt only once.
func (s *articleService) SetStatus(ctx context.Context, actor models.Actor, id int64, input *models.StatusInput) (article *models.Article, err error) {
	meta := map[string]any{}
	defer func() { s.finish(ctx, actor, actionSetStatus, id, err, meta) }()

	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor, "override article status"); err != nil {
		return nil, err
	}

	meta["from"], meta["to"] = a.Status, input.Status
	a.Status = input.Status
	s.markPublished(a)

	if err := s.repos.Article.Update(ctx, a); err != nil {
		return nil, storeError(err, "article")
	}

	s.log.Warn().Int64("id", a.ID).Int64("actor_id", actor.ID).Str("status", string(a.Status)).Msg("Article status overridden")
	return a, nil
}

// Delete removes an article and its associations
func (s *articleService) Delete(ctx context.Context, actor models.Actor, id int64) (err error) {
	defer func() { s.finish(ctx, actor, actionDelete, id, err, nil) }()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := requireAdmin(actor, "delete articles"); err != nil {
		return err
	}
	deleted, err := s.repos.Article.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "failed to delete article %d", id)
	}
	if !deleted {
		return apperr.NotFound("article %d not found", id)
	}

	s.log.Info().Int64("id", id).Msg("Article deleted")
	return nil
}
