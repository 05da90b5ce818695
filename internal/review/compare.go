// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package review

import (
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"mentorocms/internal/live"
	"mentorocms/internal/models"
)

// LanguageComparison groups the changes of one language.
type LanguageComparison struct {
	Code           string        `json:"code"`
	Name           string        `json:"name"`
	Changes        []FieldDiff   `json:"changes"`
	SectionChanges []SectionDiff `json:"section_changes"`
}

// Languages returns the ordered, de-duplicated union of the site's
// configured languages, the entity's draft languages and the languages in
// its live snapshot. A language dropped from the site configuration but
// still live is kept. When all three are empty it returns defaultLang.
func Languages(site, entity, liveLangs []string, defaultLang string) []string {
	var out []string
	for _, group := range [][]string{site, entity, liveLangs} {
		for _, code := range group {
			if code != "" && !slices.Contains(out, code) {
				out = append(out, code)
			}
		}
	}
	if len(out) == 0 && defaultLang != "" {
		out = []string{defaultLang}
	}
	return out
}

// LanguageName returns the language's own name for itself ("Deutsch" for
// de), or the code when the tag cannot be parsed.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// Compare diffs draft against display values for every language in scope.
// Languages without changes are omitted. The right-hand side is what the
// site shows: the live value when present, otherwise the draft, so a
// freshly published entity compares clean.
func Compare(e *models.Entity, site []string, defaultLang string) []LanguageComparison {
	fields := models.SnapshotFields(e.Kind)
	var out []LanguageComparison

	for _, lang := range Languages(site, e.Languages(), e.Live.Languages(), defaultLang) {
		left := make(map[string]string, len(fields))
		right := make(map[string]string, len(fields))
		for _, f := range fields {
			left[f] = renderField(f, e.DraftValue(f, lang), e.BodyFormat)
			right[f] = renderField(f, live.DisplayValue(e, f, lang), e.BodyFormat)
		}

		changes := FieldDiffs(left, right, fields)
		var sections []SectionDiff
		if e.Kind == models.KindGuide {
			sections = SectionDiffs(e, lang)
		}
		if len(changes) == 0 && len(sections) == 0 {
			continue
		}
		out = append(out, LanguageComparison{
			Code:           lang,
			Name:           LanguageName(lang),
			Changes:        changes,
			SectionChanges: sections,
		})
	}
	return out
}
