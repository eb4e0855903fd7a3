package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/repository"
	"github.com/lib/pq"
)

// The mocks behave like the Postgres repositories: unique and foreign key
// violations come back as *pq.Error so callers exercise the same
// classification path. Stored rows are copies; callers never alias them.

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

func foreignKeyViolation(constraint string) error {
	return &pq.Error{Code: "23503", Constraint: constraint}
}

// MockArticleRepository is an in-memory ArticleRepository
type MockArticleRepository struct {
	mu       sync.Mutex
	Articles map[int64]*models.Article
	nextID   int64

	// Err, when set, is returned by every method
	Err error
	// Categories and Tags, when set, are checked like foreign keys
	Categories *MockCategoryRepository
	Tags       *MockTagRepository
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{Articles: make(map[int64]*models.Article)}
}

func copyArticle(a *models.Article) *models.Article {
	cp := *a
	cp.CategoryIDs = append([]int64(nil), a.CategoryIDs...)
	cp.TagIDs = append([]int64(nil), a.TagIDs...)
	return &cp
}

func (m *MockArticleRepository) slugTaken(slug string, excludeID int64) bool {
	for id, a := range m.Articles {
		if id != excludeID && a.Slug == slug {
			return true
		}
	}
	return false
}

func (m *MockArticleRepository) checkLinks(ctx context.Context, a *models.Article) error {
	if m.Categories != nil {
		if missing, _ := m.Categories.MissingIDs(ctx, a.CategoryIDs); len(missing) > 0 {
			return foreignKeyViolation("article_categories_category_id_fkey")
		}
	}
	if m.Tags != nil {
		if missing, _ := m.Tags.MissingIDs(ctx, a.TagIDs); len(missing) > 0 {
			return foreignKeyViolation("article_tags_tag_id_fkey")
		}
	}
	return nil
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.Err != nil {
		return m.Err
	}
	if err := m.checkLinks(ctx, article); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(article.Slug, 0) {
		return uniqueViolation("articles_slug_key")
	}
	m.nextID++
	now := time.Now()
	article.ID = m.nextID
	article.CreatedAt = now
	article.UpdatedAt = now
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	if m.Err != nil {
		return m.Err
	}
	if err := m.checkLinks(ctx, article); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Articles[article.ID]; !ok {
		return nil
	}
	if m.slugTaken(article.Slug, article.ID) {
		return uniqueViolation("articles_slug_key")
	}
	article.UpdatedAt = time.Now()
	m.Articles[article.ID] = copyArticle(article)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Articles[id]; ok {
		return copyArticle(a), nil
	}
	return nil, nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Articles {
		if a.Slug == slug {
			return copyArticle(a), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugTaken(slug, excludeID), nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Articles[id]; !ok {
		return false, nil
	}
	delete(m.Articles, id)
	return true, nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	filter.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.Article
	for _, a := range m.Articles {
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		if filter.AuthorID != 0 && a.AuthorID != filter.AuthorID {
			continue
		}
		if filter.CategoryID != 0 && !containsID(a.CategoryIDs, filter.CategoryID) {
			continue
		}
		if filter.TagID != 0 && !containsID(a.TagIDs, filter.TagID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, copyArticle(a))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (m *MockArticleRepository) CountByStatus(ctx context.Context) (map[models.ArticleStatus]int, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.ArticleStatus]int)
	for _, a := range m.Articles {
		counts[a.Status]++
	}
	return counts, nil
}

// MockCategoryRepository is an in-memory CategoryRepository. It keeps a
// closure map of (ancestor, descendant) pairs to depth, maintained with
// the same rules as the categories_closure table.
type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories map[int64]*models.Category
	closure    map[[2]int64]int
	nextID     int64

	Err error
	// MoveErr, when set, fails Move and UpdateWithParent before anything
	// is written
	MoveErr error
}

var _ repository.CategoryRepository = (*MockCategoryRepository)(nil)

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int64]*models.Category),
		closure:    make(map[[2]int64]int),
	}
}

func copyCategory(c *models.Category) *models.Category {
	cp := *c
	cp.Children = nil
	return &cp
}

// Closure returns a copy of every (ancestor, descendant) pair and its depth
func (m *MockCategoryRepository) Closure() map[[2]int64]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[[2]int64]int, len(m.closure))
	for k, d := range m.closure {
		out[k] = d
	}
	return out
}

func (m *MockCategoryRepository) slugTaken(slug string, excludeID int64) bool {
	for id, c := range m.Categories {
		if id != excludeID && c.Slug == slug {
			return true
		}
	}
	return false
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(category.Slug, 0) {
		return uniqueViolation("categories_slug_key")
	}
	if category.ParentID != nil {
		if _, ok := m.Categories[*category.ParentID]; !ok {
			return foreignKeyViolation("categories_parent_id_fkey")
		}
	}
	m.nextID++
	now := time.Now()
	category.ID = m.nextID
	category.CreatedAt = now
	category.UpdatedAt = now
	m.Categories[category.ID] = copyCategory(category)

	// self pair plus a copy of every path ending at the parent
	m.closure[[2]int64{category.ID, category.ID}] = 0
	if category.ParentID != nil {
		for k, d := range m.closure {
			if k[1] == *category.ParentID {
				m.closure[[2]int64{k[0], category.ID}] = d + 1
			}
		}
	}
	return nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Categories[category.ID]
	if !ok {
		return nil
	}
	if m.slugTaken(category.Slug, category.ID) {
		return uniqueViolation("categories_slug_key")
	}
	m.updateLocked(category, stored.ParentID)
	return nil
}

func (m *MockCategoryRepository) UpdateWithParent(ctx context.Context, category *models.Category, parentID *int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Categories[category.ID]
	if !ok {
		return nil
	}
	if m.slugTaken(category.Slug, category.ID) {
		return uniqueViolation("categories_slug_key")
	}
	if err := m.checkMoveLocked(parentID); err != nil {
		return err
	}
	m.updateLocked(category, stored.ParentID)
	m.moveLocked(category.ID, parentID)
	return nil
}

func (m *MockCategoryRepository) Move(ctx context.Context, id int64, parentID *int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[id]; !ok {
		return nil
	}
	if err := m.checkMoveLocked(parentID); err != nil {
		return err
	}
	m.moveLocked(id, parentID)
	return nil
}

func (m *MockCategoryRepository) updateLocked(category *models.Category, parentID *int64) {
	category.UpdatedAt = time.Now()
	cp := copyCategory(category)
	cp.ParentID = parentID
	m.Categories[category.ID] = cp
}

func (m *MockCategoryRepository) checkMoveLocked(parentID *int64) error {
	if m.MoveErr != nil {
		return m.MoveErr
	}
	if parentID != nil {
		if _, ok := m.Categories[*parentID]; !ok {
			return foreignKeyViolation("categories_parent_id_fkey")
		}
	}
	return nil
}

// moveLocked drops the links from outside ancestors into the subtree of
// id, then joins every path ending at parentID with every path starting
// at id.
func (m *MockCategoryRepository) moveLocked(id int64, parentID *int64) {
	subtree := map[int64]int{}
	for k, d := range m.closure {
		if k[0] == id {
			subtree[k[1]] = d
		}
	}
	for k := range m.closure {
		_, inside := subtree[k[1]]
		_, fromInside := subtree[k[0]]
		if inside && !fromInside {
			delete(m.closure, k)
		}
	}

	var p *int64
	if parentID != nil {
		above := map[int64]int{}
		for k, d := range m.closure {
			if k[1] == *parentID {
				above[k[0]] = d
			}
		}
		for ancestor, up := range above {
			for descendant, down := range subtree {
				m.closure[[2]int64{ancestor, descendant}] = up + down + 1
			}
		}
		v := *parentID
		p = &v
	}

	c := m.Categories[id]
	c.ParentID = p
	c.UpdatedAt = time.Now()
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Categories[id]; ok {
		return copyCategory(c), nil
	}
	return nil, nil
}

func (m *MockCategoryRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugTaken(slug, excludeID), nil
}

func (m *MockCategoryRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	children, err := m.Children(ctx, id)
	return len(children) > 0, err
}

func (m *MockCategoryRepository) Children(ctx context.Context, id int64) ([]*models.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Category
	for _, c := range m.Categories {
		if c.ParentID != nil && *c.ParentID == id {
			out = append(out, copyCategory(c))
		}
	}
	sortCategories(out)
	return out, nil
}

func (m *MockCategoryRepository) List(ctx context.Context, filter models.TreeFilter) ([]*models.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Category
	for _, c := range m.Categories {
		if filter.Type != "" && string(c.Type) != filter.Type {
			continue
		}
		if filter.ActiveOnly && !c.IsActive {
			continue
		}
		out = append(out, copyCategory(c))
	}
	sortCategories(out)
	return out, nil
}

func (m *MockCategoryRepository) IsDescendant(ctx context.Context, ancestorID, nodeID int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	depth, ok := m.closure[[2]int64{ancestorID, nodeID}]
	return ok && depth > 0, nil
}

func (m *MockCategoryRepository) Ancestors(ctx context.Context, id int64) ([]*models.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	type step struct {
		c     *models.Category
		depth int
	}
	var steps []step
	for k, d := range m.closure {
		if k[1] != id || d == 0 {
			continue
		}
		if c, ok := m.Categories[k[0]]; ok {
			steps = append(steps, step{copyCategory(c), d})
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].depth > steps[j].depth })
	chain := make([]*models.Category, len(steps))
	for i, s := range steps {
		chain[i] = s.c
	}
	return chain, nil
}

func (m *MockCategoryRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if _, ok := m.Categories[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[id]; !ok {
		return false, nil
	}
	for _, c := range m.Categories {
		if c.ParentID != nil && *c.ParentID == id {
			return false, foreignKeyViolation("categories_parent_id_fkey")
		}
	}
	delete(m.Categories, id)
	for k := range m.closure {
		if k[0] == id || k[1] == id {
			delete(m.closure, k)
		}
	}
	return true, nil
}

func (m *MockCategoryRepository) Count(ctx context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Categories), nil
}

func sortCategories(cs []*models.Category) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].DisplayOrder != cs[j].DisplayOrder {
			return cs[i].DisplayOrder < cs[j].DisplayOrder
		}
		if cs[i].Name != cs[j].Name {
			return cs[i].Name < cs[j].Name
		}
		return cs[i].ID < cs[j].ID
	})
}

// MockTagRepository is an in-memory TagRepository
type MockTagRepository struct {
	mu     sync.Mutex
	Tags   map[int64]*models.Tag
	nextID int64

	Err error
}

var _ repository.TagRepository = (*MockTagRepository)(nil)

func NewMockTagRepository() *MockTagRepository {
	return &MockTagRepository{Tags: make(map[int64]*models.Tag)}
}

func (m *MockTagRepository) conflict(tag *models.Tag) error {
	for id, t := range m.Tags {
		if id == tag.ID {
			continue
		}
		if strings.EqualFold(t.Name, tag.Name) {
			return uniqueViolation("tags_name_key")
		}
		if t.Slug == tag.Slug {
			return uniqueViolation("tags_slug_key")
		}
	}
	return nil
}

func (m *MockTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tag.ID = 0
	if err := m.conflict(tag); err != nil {
		return err
	}
	m.nextID++
	now := time.Now()
	tag.ID = m.nextID
	tag.CreatedAt = now
	tag.UpdatedAt = now
	cp := *tag
	m.Tags[tag.ID] = &cp
	return nil
}

func (m *MockTagRepository) Update(ctx context.Context, tag *models.Tag) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Tags[tag.ID]; !ok {
		return nil
	}
	if err := m.conflict(tag); err != nil {
		return err
	}
	tag.UpdatedAt = time.Now()
	cp := *tag
	m.Tags[tag.ID] = &cp
	return nil
}

func (m *MockTagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.Tags[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *MockTagRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.Tags {
		if id != excludeID && strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTagRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.Tags {
		if id != excludeID && t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockTagRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if _, ok := m.Tags[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (m *MockTagRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Tags[id]; !ok {
		return false, nil
	}
	delete(m.Tags, id)
	return true, nil
}

func (m *MockTagRepository) List(ctx context.Context, filter models.TagFilter) ([]*models.Tag, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	filter.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*models.Tag
	for _, t := range m.Tags {
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *t
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (m *MockTagRepository) Count(ctx context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tags), nil
}

// MockAuditRepository records inserted audit events in order
type MockAuditRepository struct {
	mu     sync.Mutex
	Events []*models.AuditEvent

	Err error
}

var _ repository.AuditRepository = (*MockAuditRepository)(nil)

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.Events = append(m.Events, &cp)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEvent, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	filter.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*models.AuditEvent
	for i := len(m.Events) - 1; i >= 0; i-- {
		e := m.Events[i]
		if filter.ActorID != 0 && e.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != 0 && e.EntityID != filter.EntityID {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

// Snapshot returns a copy of the recorded events
func (m *MockAuditRepository) Snapshot() []*models.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AuditEvent(nil), m.Events...)
}

// NewRepositories wires a full set of mocks with article links checked
func NewRepositories() (*repository.Repositories, *MockArticleRepository, *MockCategoryRepository, *MockTagRepository, *MockAuditRepository) {
	categories := NewMockCategoryRepository()
	tags := NewMockTagRepository()
	articles := NewMockArticleRepository()
	articles.Categories = categories
	articles.Tags = tags
	audit := NewMockAuditRepository()
	return &repository.Repositories{
		Article:  articles,
		Category: categories,
		Tag:      tags,
		Audit:    audit,
	}, articles, categories, tags, audit
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
