package page

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// GenerateSlug derives a URL slug from a page title: accents are reduced to
// their base letters (NFD decomposition with combining marks dropped),
// everything is lowercased, runs of non-alphanumeric characters collapse to a
// single hyphen, and leading/trailing hyphens are stripped. Characters with
// no base-letter decomposition are treated as separators rather than
// transliterated.
func GenerateSlug(title string) string {
	decomposed := norm.NFD.String(title)

	var b strings.Builder
	b.Grow(len(decomposed))

	lastHyphen := true // suppress leading hyphen
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}

		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
