package handlers

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"mentorocms/internal/editorial"
	"mentorocms/internal/models"
)

// Input limits per translated field, in characters.
var fieldLimits = map[string]int{
	models.FieldTitle:      300,
	models.FieldSlug:       300,
	models.FieldPublicSlug: 300,
	models.FieldPersona:    300,
	models.FieldIntro:      5_000,
	models.FieldBody:       100_000,
	models.FieldOutro:      5_000,
}

const (
	maxSectionTitleLen = 300
	maxSectionBodyLen  = 50_000
	maxItemTeaserLen   = 1_000
	maxBulkIDs         = 500
)

// validateDraft checks the size of submitted draft values and returns the
// first problem found, or "". Semantic checks are left to the service.
func validateDraft(d editorial.Draft) string {
	for _, lang := range slices.Sorted(maps.Keys(d.Translations)) {
		fields := d.Translations[lang]
		for _, name := range slices.Sorted(maps.Keys(fields)) {
			limit, ok := fieldLimits[name]
			if !ok {
				continue
			}
			if utf8.RuneCountInString(fields[name]) > limit {
				return fmt.Sprintf("%s [%s] is too long (max %d characters).", name, lang, limit)
			}
		}
		if t, ok := fields[models.FieldTitle]; ok && strings.TrimSpace(t) == "" {
			return fmt.Sprintf("title [%s] must not be blank.", lang)
		}
	}
	return ""
}

// validateSection checks the size of a submitted guide section.
func validateSection(sec models.Section) string {
	for _, lang := range slices.Sorted(maps.Keys(sec.Translations)) {
		t := sec.Translations[lang]
		if t == nil {
			return fmt.Sprintf("section translation [%s] is empty.", lang)
		}
		if utf8.RuneCountInString(t.Title) > maxSectionTitleLen {
			return fmt.Sprintf("section title [%s] is too long (max %d characters).", lang, maxSectionTitleLen)
		}
		if utf8.RuneCountInString(t.Body) > maxSectionBodyLen {
			return fmt.Sprintf("section body [%s] is too long (max %d characters).", lang, maxSectionBodyLen)
		}
	}
	for _, it := range sec.Items {
		for lang, t := range it.Translations {
			if t != nil && utf8.RuneCountInString(t.Teaser) > maxItemTeaserLen {
				return fmt.Sprintf("item teaser [%s] is too long (max %d characters).", lang, maxItemTeaserLen)
			}
		}
	}
	return ""
}
