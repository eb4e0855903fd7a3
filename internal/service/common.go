package service

import (
	"context"
	"sort"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/audit"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/content"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/database"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/rs/zerolog"
)

const (
	entityArticle  = "article"
	entityCategory = "category"
	entityTag      = "tag"
)

// storeError classifies a repository write failure. Unique violations are
// conflicts and broken references are missing entities; anything else is
// unexpected.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return apperr.Conflict("%s conflicts with an existing record", what).
			WithDetail("constraint", database.ConstraintName(err))
	case database.IsForeignKeyViolation(err):
		return apperr.NotFound("%s references a missing record", what).
			WithDetail("constraint", database.ConstraintName(err))
	default:
		return apperr.Wrap(err, "failed to store %s", what)
	}
}

// recordAudit emits exactly one audit event for a mutating operation
func recordAudit(ctx context.Context, rec audit.Recorder, actor models.Actor, entityType, action string, entityID int64, err error, metadata map[string]any) {
	event := models.AuditEvent{
		ActorID:    actor.ID,
		Action:     entityType + "." + action,
		EntityType: entityType,
		EntityID:   entityID,
		Outcome:    models.OutcomeSuccess,
		Metadata:   metadata,
	}
	if err != nil {
		event.Outcome = models.OutcomeFailure
		if event.Metadata == nil {
			event.Metadata = map[string]any{}
		}
		event.Metadata["error_kind"] = apperr.KindOf(err).String()
	}
	rec.Record(ctx, event)
}

// logFailure logs unexpected errors with their stack; expected outcomes
// stay at debug.
func logFailure(log zerolog.Logger, err error, action string, entityID int64) {
	if err == nil {
		return
	}
	if apperr.KindOf(err) == apperr.KindUnexpected {
		log.Error().Stack().Err(err).Str("action", action).Int64("id", entityID).Msg("Operation failed")
		return
	}
	log.Debug().Err(err).Str("action", action).Int64("id", entityID).Msg("Operation rejected")
}

// Slug column widths
const (
	articleSlugLen  = 255
	categorySlugLen = 255
	tagSlugLen      = 100
)

// resolveSlug normalizes an explicit slug, falling back to source. The
// result fits in max bytes.
func resolveSlug(explicit *string, source string, max int) (string, error) {
	if explicit != nil && *explicit != "" {
		slug := content.SlugifyMax(*explicit, max)
		if slug == "" {
			return "", apperr.Invalid("slug %q has no usable characters", *explicit).WithDetail("slug", "is invalid")
		}
		return slug, nil
	}
	slug := content.SlugifyMax(source, max)
	if slug == "" {
		return "", apperr.Invalid("cannot derive a slug from %q", source).WithDetail("slug", "is required")
	}
	return slug, nil
}

// uniqueIDs drops duplicates and returns ids in ascending order
func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func requireAdmin(actor models.Actor, what string) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins may %s", what)
	}
	return nil
}

func strOrNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
