package fileset

import (
	"strings"
	"unicode"
)

// StripExtension removes a recognized extension, case-insensitively.
// Unknown extensions are left in place.
func StripExtension(name string) string {
	kind, ext := defaultClassifier.Classify(name)
	if !Matchable(kind) {
		return name
	}
	return name[:len(name)-len(ext)]
}

// Normalize canonicalizes a file name for matching: the recognized extension
// is stripped, the rest lowercased, and whitespace, '-', '_' and '+' removed.
func Normalize(name string) string {
	base := strings.ToLower(StripExtension(name))
	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		if unicode.IsSpace(r) || r == '-' || r == '_' || r == '+' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SameEntity reports whether two file names belong to one entity.
func SameEntity(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
