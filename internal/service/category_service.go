package service

import (
	"context"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/audit"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/validation"
	"github.com/rs/zerolog"
)

// categoryService is the concrete implementation of CategoryService
type categoryService struct {
	repo     repository.CategoryRepository
	validate *validation.Validator
	recorder audit.Recorder
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func newCategoryService(repo repository.CategoryRepository, deps serviceDeps) *categoryService {
	return &categoryService{
		repo:     repo,
		validate: deps.validate,
		recorder: deps.recorder,
		metrics:  deps.metrics,
		log:      deps.log.With().Str("service", "category").Logger(),
	}
}

func (s *categoryService) finish(ctx context.Context, actor models.Actor, op string, id int64, err error, meta map[string]any) {
	s.metrics.CategoryOperation(op, err)
	recordAudit(ctx, s.recorder, actor, entityCategory, op, id, err, meta)
	logFailure(s.log, err, op, id)
}

func (s *categoryService) load(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load category %d", id)
	}
	if category == nil {
		return nil, apperr.NotFound("category %d not found", id)
	}
	return category, nil
}

func (s *categoryService) checkSlug(ctx context.Context, slug string, excludeID int64) error {
	taken, err := s.repo.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return apperr.Wrap(err, "failed to check slug")
	}
	if taken {
		return apperr.Conflict("slug %q is already in use", slug).WithDetail("slug", slug)
	}
	return nil
}

// checkParent validates a new parent for id. id is 0 for a node that does
// not exist yet.
func (s *categoryService) checkParent(ctx context.Context, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if id != 0 && *parentID == id {
		return apperr.Conflict("category %d cannot be its own parent", id).WithDetail("parent_id", *parentID)
	}
	if _, err := s.load(ctx, *parentID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("parent category %d not found", *parentID).WithDetail("parent_id", *parentID)
		}
		return err
	}
	if id == 0 {
		return nil
	}
	below, err := s.repo.IsDescendant(ctx, id, *parentID)
	if err != nil {
		return apperr.Wrap(err, "failed to check category ancestry")
	}
	if below {
		return apperr.Conflict("category %d cannot move below its own descendant %d", id, *parentID).
			WithDetail("parent_id", *parentID)
	}
	return nil
}

// Create adds a category, optionally below an existing parent
func (s *categoryService) Create(ctx context.Context, actor models.Actor, input *models.CreateCategoryInput) (category *models.Category, err error) {
	defer func() {
		var id int64
		if category != nil {
			id = category.ID
		}
		s.finish(ctx, actor, actionCreate, id, err, map[string]any{"name": input.Name, "parent_id": input.ParentID})
	}()

	if err := requireAdmin(actor, "create categories"); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(input.Slug, input.Name, categorySlugLen)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, 0, input.ParentID); err != nil {
		return nil, err
	}
	if err := s.checkSlug(ctx, slug, 0); err != nil {
		return nil, err
	}

	c := &models.Category{
		Name:         input.Name,
		Slug:         slug,
		Type:         input.Type,
		Description:  strOrNil(input.Description),
		DisplayOrder: input.DisplayOrder,
		IsActive:     true,
		ParentID:     input.ParentID,
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, storeError(err, "category")
	}

	s.log.Info().Int64("id", c.ID).Str("slug", c.Slug).Msg("Category created")
	return c, nil
}

// Update applies a partial update. A present parent_id reparents the node
// (null detaches it to a root) under the same guards as Move.
func (s *categoryService) Update(ctx context.Context, actor models.Actor, id int64, input *models.UpdateCategoryInput) (category *models.Category, err error) {
	meta := map[string]any{}
	defer func() { s.finish(ctx, actor, actionUpdate, id, err, meta) }()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor, "update categories"); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	if input.Slug != nil && *input.Slug != "" {
		slug, err := resolveSlug(input.Slug, "", categorySlugLen)
		if err != nil {
			return nil, err
		}
		if slug != c.Slug {
			if err := s.checkSlug(ctx, slug, id); err != nil {
				return nil, err
			}
			c.Slug = slug
		}
	}

	reparent := input.ParentID.Set && !sameParent(c.ParentID, input.ParentID.Ptr())
	if reparent {
		if err := s.checkParent(ctx, id, input.ParentID.Ptr()); err != nil {
			return nil, err
		}
	}

	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.Type != nil {
		c.Type = *input.Type
	}
	if input.Description != nil {
		c.Description = strOrNil(input.Description)
	}
	if input.DisplayOrder != nil {
		c.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}

	if reparent {
		if err := s.repo.UpdateWithParent(ctx, c, input.ParentID.Ptr()); err != nil {
			return nil, storeError(err, "category")
		}
		meta["from_parent"], meta["to_parent"] = c.ParentID, input.ParentID.Ptr()
		c.ParentID = input.ParentID.Ptr()
	} else if err := s.repo.Update(ctx, c); err != nil {
		return nil, storeError(err, "category")
	}

	s.log.Info().Int64("id", c.ID).Bool("reparented", reparent).Msg("Category updated")
	return c, nil
}

// Move reattaches a category and its subtree below parentID, or makes it a
// root when parentID is nil.
func (s *categoryService) Move(ctx context.Context, actor models.Actor, id int64, input *models.MoveCategoryInput) (category *models.Category, err error) {
	meta := map[string]any{"to_parent": input.ParentID}
	defer func() { s.finish(ctx, actor, actionMove, id, err, meta) }()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor, "move categories"); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	meta["from_parent"] = c.ParentID
	if sameParent(c.ParentID, input.ParentID) {
		return c, nil
	}
	if err := s.checkParent(ctx, id, input.ParentID); err != nil {
		return nil, err
	}
	if err := s.repo.Move(ctx, id, input.ParentID); err != nil {
		return nil, storeError(err, "category")
	}
	c.ParentID = input.ParentID

	s.log.Info().Int64("id", id).Msg("Category moved")
	return c, nil
}

// Delete removes a leaf category
func (s *categoryService) Delete(ctx context.Context, actor models.Actor, id int64) (err error) {
	defer func() { s.finish(ctx, actor, actionDelete, id, err, nil) }()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := requireAdmin(actor, "delete categories"); err != nil {
		return err
	}
	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "failed to check children of category %d", id)
	}
	if hasChildren {
		return apperr.Conflict("category %d still has children", id)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if database.IsForeignKeyViolation(err) {
		// a child was attached after the check
		return apperr.Conflict("category %d still has children", id)
	}
	if err != nil {
		return apperr.Wrap(err, "failed to delete category %d", id)
	}
	if !deleted {
		return apperr.NotFound("category %d not found", id)
	}

	s.log.Info().Int64("id", id).Msg("Category deleted")
	return nil
}

// GetTree returns the category forest. Siblings are ordered by display
// order, then name. With a filter, a node whose parent is excluded is
// returned as a root.
func (s *categoryService) GetTree(ctx context.Context, filter models.TreeFilter) ([]*models.Category, error) {
	if filter.Type != "" && !models.CategoryType(filter.Type).IsValid() {
		return nil, apperr.Invalid("unknown category type %q", filter.Type).WithDetail("type", "must be a known category type")
	}
	categories, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list categories")
	}
	return buildTree(categories), nil
}

// buildTree links categories into a forest. Input order is preserved
// among siblings.
func buildTree(categories []*models.Category) []*models.Category {
	byID := make(map[int64]*models.Category, len(categories))
	for _, c := range categories {
		c.Children = nil
		byID[c.ID] = c
	}
	roots := make([]*models.Category, 0)
	for _, c := range categories {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Children = append(parent.Children, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

// GetNode returns a category with its direct children
func (s *categoryService) GetNode(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.repo.Children(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load children of category %d", id)
	}
	c.Children = children
	if c.Children == nil {
		c.Children = []*models.Category{}
	}
	return c, nil
}

// Ancestors returns the breadcrumb from the root to the direct parent
func (s *categoryService) Ancestors(ctx context.Context, id int64) ([]*models.Category, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	ancestors, err := s.repo.Ancestors(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load ancestors of category %d", id)
	}
	if ancestors == nil {
		ancestors = []*models.Category{}
	}
	return ancestors, nil
}

// List returns categories as a flat list
func (s *categoryService) List(ctx context.Context, filter models.TreeFilter) ([]*models.Category, error) {
	if filter.Type != "" && !models.CategoryType(filter.Type).IsValid() {
		return nil, apperr.Invalid("unknown category type %q", filter.Type).WithDetail("type", "must be a known category type")
	}
	categories, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list categories")
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	return categories, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
