package content

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// letters that do not decompose into base + combining mark
	foldReplacer = strings.NewReplacer(
		"đ", "d", "Đ", "d",
		"ß", "ss",
		"æ", "ae", "Æ", "ae",
		"ø", "o", "Ø", "o",
		"ł", "l", "Ł", "l",
		"œ", "oe", "Œ", "oe",
	)
)

// Slugify derives a URL slug: lowercase, diacritics stripped, runs of
// anything else collapsed to one hyphen, no leading or trailing hyphen.
//
//	"Hello World!!"  -> "hello-world"
//	"Café  Crème"    -> "cafe-creme"
//	"Tin tức Đà Nẵng" -> "tin-tuc-da-nang"
func Slugify(s string) string {
	s = foldReplacer.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugifyMax is Slugify cut to at most max bytes. The cut falls on the
// last hyphen that fits when there is one, so words stay whole.
func SlugifyMax(s string, max int) string {
	slug := Slugify(s)
	if max <= 0 || len(slug) <= max {
		return slug
	}
	if slug[max] == '-' {
		return slug[:max]
	}
	cut := slug[:max]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}
	return cut
}

// IsSlug reports whether s is already in canonical slug form.
func IsSlug(s string) bool {
	return slugRegex.MatchString(s)
}
