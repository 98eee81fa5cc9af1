package parser

import (
	"strconv"
	"strings"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
)

// RootPath is the path of a scalar at the root.
const RootPath = "value"

// Flatten converts v into (path, value) pairs by depth-first traversal.
// Object keys keep source order and array elements keep index order.
// Paths are interned in a shared pool.
func Flatten(v Value) []models.ExtractedField {
	var out []models.ExtractedField
	flatten(v, "", &out)
	return out
}

func flatten(v Value, prefix string, out *[]models.ExtractedField) {
	switch v.Kind {
	case KindObject:
		for _, m := range v.Members {
			path := m.Key
			if prefix != "" {
				path = prefix + "." + m.Key
			}
			flatten(m.Value, path, out)
		}
	case KindArray:
		for i, item := range v.Items {
			flatten(item, prefix+"["+strconv.Itoa(i)+"]", out)
		}
	default:
		path := prefix
		if path == "" {
			path = RootPath
		}
		*out = append(*out, models.ExtractedField{Path: fieldPaths.Intern(path), Value: v.Scalar()})
	}
}

// FlattenText emits one field per non-empty line of a plain-text file,
// keyed by its 1-based line number.
func FlattenText(text string) []models.ExtractedField {
	var out []models.ExtractedField
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, models.ExtractedField{Path: "line_" + strconv.Itoa(i+1), Value: line})
	}
	return out
}
