package service

import (
	"context"
	"strings"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/audit"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/content"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/metrics"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/validation"
	"github.com/rs/zerolog"
)

type tagService struct {
	repo     repository.TagRepository
	validate *validation.Validator
	recorder audit.Recorder
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func newTagService(repo repository.TagRepository, deps serviceDeps) *tagService {
	return &tagService{
		repo:     repo,
		validate: deps.validate,
		recorder: deps.recorder,
		metrics:  deps.metrics,
		log:      deps.log.With().Str("service", "tag").Logger(),
	}
}

func (s *tagService) finish(ctx context.Context, actor models.Actor, op string, id int64, err error, meta map[string]any) {
	s.metrics.TagOperation(op, err)
	recordAudit(ctx, s.recorder, actor, entityTag, op, id, err, meta)
	logFailure(s.log, err, op, id)
}

// Get returns one tag
func (s *tagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	tag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load tag %d", id)
	}
	if tag == nil {
		return nil, apperr.NotFound("tag %d not found", id)
	}
	return tag, nil
}

// List returns one page of tags ordered by name
func (s *tagService) List(ctx context.Context, filter models.TagFilter) (*models.TagPage, error) {
	filter.Normalize()
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list tags")
	}
	return &models.TagPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *tagService) checkName(ctx context.Context, name string, excludeID int64) error {
	taken, err := s.repo.NameExists(ctx, name, excludeID)
	if err != nil {
		return apperr.Wrap(err, "failed to check tag name")
	}
	if taken {
		return apperr.Conflict("tag %q already exists", name).WithDetail("name", name)
	}
	return nil
}

func (s *tagService) checkSlug(ctx context.Context, slug string, excludeID int64) error {
	taken, err := s.repo.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return apperr.Wrap(err, "failed to check tag slug")
	}
	if taken {
		return apperr.Conflict("slug %q is already in use", slug).WithDetail("slug", slug)
	}
	return nil
}

// Create adds a tag. Name and slug must both be unique.
func (s *tagService) Create(ctx context.Context, actor models.Actor, input *models.CreateTagInput) (tag *models.Tag, err error) {
	defer func() {
		var id int64
		if tag != nil {
			id = tag.ID
		}
		s.finish(ctx, actor, actionCreate, id, err, map[string]any{"name": input.Name})
	}()

	if err := requireAdmin(actor, "create tags"); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	slug, err := resolveSlug(input.Slug, name, tagSlugLen)
	if err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, name, 0); err != nil {
		return nil, err
	}
	if err := s.checkSlug(ctx, slug, 0); err != nil {
		return nil, err
	}

	t := &models.Tag{Name: name, Slug: slug, Description: strOrNil(input.Description)}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, storeError(err, "tag")
	}

	s.log.Info().Int64("id", t.ID).Str("slug", t.Slug).Msg("Tag created")
	return t, nil
}

// Update applies a partial update. A renamed tag follows its new name's
// slug unless that slug is taken or a slug was given explicitly.
func (s *tagService) Update(ctx context.Context, actor models.Actor, id int64, input *models.UpdateTagInput) (tag *models.Tag, err error) {
	defer func() { s.finish(ctx, actor, actionUpdate, id, err, nil) }()

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor, "update tags"); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Invalid("name must not be blank").WithDetail("name", "is required")
		}
		if name != t.Name {
			if err := s.checkName(ctx, name, id); err != nil {
				return nil, err
			}
			if input.Slug == nil || *input.Slug == "" {
				candidate := content.SlugifyMax(name, tagSlugLen)
				if candidate != "" && candidate != t.Slug {
					taken, err := s.repo.SlugExists(ctx, candidate, id)
					if err != nil {
						return nil, apperr.Wrap(err, "failed to check tag slug")
					}
					if !taken {
						t.Slug = candidate
					}
				}
			}
			t.Name = name
		}
	}
	if input.Slug != nil && *input.Slug != "" {
		slug, err := resolveSlug(input.Slug, "", tagSlugLen)
		if err != nil {
			return nil, err
		}
		if slug != t.Slug {
			if err := s.checkSlug(ctx, slug, id); err != nil {
				return nil, err
			}
			t.Slug = slug
		}
	}
	if input.Description != nil {
		t.Description = strOrNil(input.Description)
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, storeError(err, "tag")
	}

	s.log.Info().Int64("id", t.ID).Msg("Tag updated")
	return t, nil
}

// Delete removes a tag; article links go with it
func (s *tagService) Delete(ctx context.Context, actor models.Actor, id int64) (err error) {
	defer func() { s.finish(ctx, actor, actionDelete, id, err, nil) }()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := requireAdmin(actor, "delete tags"); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "failed to delete tag %d", id)
	}
	if !deleted {
		return apperr.NotFound("tag %d not found", id)
	}

	s.log.Info().Int64("id", id).Msg("Tag deleted")
	return nil
}
