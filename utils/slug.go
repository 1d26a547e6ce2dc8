package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength est la longueur maximale d'un slug
const MaxSlugLength = 50

// Slugify transforme un titre en slug ASCII : "Café d'été 2025" -> "cafe-dete-2025".
// Les accents sont retirés, les autres caractères non alphanumériques supprimés.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	return TruncateSlug(b.String(), MaxSlugLength)
}

// TruncateSlug coupe un slug à max caractères sans laisser de tiret final
func TruncateSlug(slug string, max int) string {
	if len(slug) > max {
		slug = slug[:max]
	}
	return strings.Trim(slug, "-")
}
