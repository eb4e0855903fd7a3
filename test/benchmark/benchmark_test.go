package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/config"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/content"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/mocks"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/service"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/validation"
	"github.com/rs/zerolog"
)

var admin = models.NewActor(1, models.RoleAdmin)

// longDocument builds a document with n paragraphs of mixed marks
func longDocument(n int) json.RawMessage {
	paragraphs := make([]any, n)
	for i := range paragraphs {
		paragraphs[i] = map[string]any{
			"type": "paragraph",
			"content": []any{
				map[string]any{"type": "text", "text": fmt.Sprintf("Paragraph %d has some ", i)},
				map[string]any{"type": "text", "text": "bold", "marks": []any{map[string]any{"type": "bold"}}},
				map[string]any{"type": "text", "text": " words & <escaped> text in it."},
			},
		}
	}
	raw, _ := json.Marshal(map[string]any{"type": "doc", "content": paragraphs})
	return raw
}

// BenchmarkSlugify benchmarks slug generation with diacritics
func BenchmarkSlugify(b *testing.B) {
	titles := []string{
		"Hello World!!",
		"Tin tức thời sự hôm nay: Việt Nam",
		"  Déjà vu - über café  ",
		strings.Repeat("long title segment ", 20),
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		content.Slugify(titles[i%len(titles)])
	}
}

// BenchmarkRenderAndStats benchmarks the content refresh path of an article save
func BenchmarkRenderAndStats(b *testing.B) {
	raw := longDocument(200)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		doc, err := content.ParseDocument(raw)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := content.RenderHTML(doc); err != nil {
			b.Fatal(err)
		}
		content.ComputeStats(content.PlainText(doc), content.DefaultReadingWPM)
	}

	b.ReportMetric(float64(200*b.N)/b.Elapsed().Seconds(), "paragraphs/sec")
}

// BenchmarkPlainTextFromHTML benchmarks stats extraction from an HTML mirror
func BenchmarkPlainTextFromHTML(b *testing.B) {
	doc, _ := content.ParseDocument(longDocument(200))
	mirror, _ := content.RenderHTML(doc)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := content.PlainTextFromHTML(mirror); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCategoryTree benchmarks assembling a 1000 node forest
func BenchmarkCategoryTree(b *testing.B) {
	repos, _, _, _, _ := mocks.NewRepositories()
	services := service.NewServices(repos, config.Default(), nil, nil, zerolog.Nop())
	ctx := context.Background()

	var parents []int64
	for i := 0; i < 1000; i++ {
		input := &models.CreateCategoryInput{
			Name:         fmt.Sprintf("Category %04d", i),
			Type:         models.CategoryTypeNewsType,
			DisplayOrder: i % 7,
		}
		if len(parents) > 0 && i%10 != 0 {
			parent := parents[i%len(parents)]
			input.ParentID = &parent
		}
		c, err := services.Category.Create(ctx, admin, input)
		if err != nil {
			b.Fatal(err)
		}
		parents = append(parents, c.ID)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := services.Category.GetTree(ctx, models.TreeFilter{}); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "nodes/sec")
}

// BenchmarkValidation benchmarks validation of article input
func BenchmarkValidation(b *testing.B) {
	v := validation.NewValidator()
	slug := "a-valid-slug"
	input := &models.CreateArticleInput{
		Title:       "Benchmark",
		Slug:        &slug,
		CategoryIDs: []int64{1, 2, 3},
		TagIDs:      []int64{4, 5},
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := v.Struct(input); err != nil {
			b.Fatal(err)
		}
	}
}
