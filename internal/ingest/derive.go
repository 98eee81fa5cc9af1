package ingest

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dild26/caffeine-projects-sub001/internal/digest"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/dild26/caffeine-projects-sub001/internal/parser"
)

const (
	maxTags       = 10
	autoImportTag = "auto-import"
)

func deriveTemplate(set *models.FileSet, v parser.Value, defaultCategory string) models.TemplateRecord {
	return models.TemplateRecord{
		ID:       digest.RecordID(set.ContentHash),
		Name:     set.BaseName,
		Fields:   set.Fields,
		Category: stringField(v, defaultCategory, "category"),
	}
}

func deriveCatalogEntry(set *models.FileSet, v parser.Value, tmpl models.TemplateRecord, description string) models.CatalogEntry {
	return models.CatalogEntry{
		ID:             tmpl.ID,
		Title:          stringField(v, set.BaseName, "title", "name"),
		Category:       tmpl.Category,
		Description:    description,
		Tags:           deriveTags(v),
		SourceFilename: set.JSONFile.Name,
	}
}

// stringField returns the first non-empty string member of a root object
// among keys, else def.
func stringField(v parser.Value, def string, keys ...string) string {
	for _, k := range keys {
		if m, ok := v.Get(k); ok && m.Kind == parser.KindString {
			if s := strings.TrimSpace(m.Str); s != "" {
				return s
			}
		}
	}
	return def
}

func deriveTags(v parser.Value) []string {
	keys := v.Keys()
	seen := make(map[string]struct{}, len(keys))
	tags := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		tags = append(tags, k)
	}
	sort.Strings(tags)
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return append(tags, autoImportTag)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
