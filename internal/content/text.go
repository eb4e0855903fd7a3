package content

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// DefaultReadingWPM is the reading speed used when none is configured.
const DefaultReadingWPM = 200

// Stats are the derived figures stored alongside article content.
type Stats struct {
	WordCount      int
	CharacterCount int
	ReadingTime    int // minutes, at least 1
}

// ComputeStats counts whitespace-delimited words and runes of plain and
// rounds reading time up to whole minutes.
func ComputeStats(plain string, wpm int) Stats {
	if wpm <= 0 {
		wpm = DefaultReadingWPM
	}
	words := len(strings.Fields(plain))
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		minutes = 1
	}
	return Stats{
		WordCount:      words,
		CharacterCount: utf8.RuneCountInString(plain),
		ReadingTime:    minutes,
	}
}

// PlainText flattens a document to text. Block nodes end with a newline;
// hard breaks become newlines.
func PlainText(doc *Node) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	writePlain(&b, doc)
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, n *Node) {
	switch n.Type {
	case "text":
		b.WriteString(n.Text)
		return
	case "hardBreak":
		b.WriteByte('\n')
		return
	}
	for i := range n.Content {
		writePlain(b, &n.Content[i])
	}
	if n.Type != "doc" && len(n.Content) > 0 {
		endLine(b)
	}
}

func endLine(b *strings.Builder) {
	s := b.String()
	if len(s) > 0 && s[len(s)-1] != '\n' {
		b.WriteByte('\n')
	}
}

// Extract returns the plain text of an article body: the document when
// present, else the HTML mirror.
func Extract(raw json.RawMessage, htmlMirror string) (string, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return "", err
	}
	if doc != nil {
		return PlainText(doc), nil
	}
	if htmlMirror != "" {
		return PlainTextFromHTML(htmlMirror)
	}
	return "", nil
}
