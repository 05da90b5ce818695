// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package live

import (
	"fmt"
	"slices"

	"mentorocms/internal/models"
)

// Reader is a Source that also carries a live snapshot.
type Reader interface {
	Source
	LiveValue(field, lang string) string
}

// DisplayValue returns what visitors see for field in lang: the live value
// when present and non-empty, otherwise the draft value, otherwise "".
func DisplayValue(r Reader, field, lang string) string {
	if v := r.LiveValue(field, lang); v != "" {
		return v
	}
	return r.DraftValue(field, lang)
}

// DisplayValueAny is DisplayValue with a language fallback chain for
// non-localized lookups such as admin lists. It tries lang, then each of
// fallbacks, then every other draft language in sorted order.
func DisplayValueAny(r Reader, field, lang string, fallbacks ...string) string {
	for _, l := range languageChain(r, lang, fallbacks) {
		if v := DisplayValue(r, field, l); v != "" {
			return v
		}
	}
	return ""
}

// Slug resolves the public slug of an entity in lang. The live snapshot is
// preferred over the draft, and public_slug over slug. When lang yields
// nothing the entity's other languages are tried in sorted order.
func Slug(e *models.Entity, lang string) string {
	for _, l := range languageChain(e, lang, e.Live.Languages()) {
		if v := slugIn(e, l); v != "" {
			return v
		}
	}
	return ""
}

func slugIn(e *models.Entity, lang string) string {
	for _, v := range []string{
		e.LiveValue(models.FieldPublicSlug, lang),
		e.LiveValue(models.FieldSlug, lang),
		e.DraftValue(models.FieldPublicSlug, lang),
		e.DraftValue(models.FieldSlug, lang),
	} {
		if v != "" {
			return v
		}
	}
	return ""
}

// AbsoluteURL builds the public path of an entity in lang, or "#" when no
// slug can be resolved.
func AbsoluteURL(e *models.Entity, lang string) string {
	s := Slug(e, lang)
	if s == "" {
		return "#"
	}
	return fmt.Sprintf("/%s/%s/%s/", lang, e.Kind.PathSegment(), s)
}

// languageChain returns lang, then extra, then the remaining draft
// languages of src, without duplicates.
func languageChain(src Source, lang string, extra []string) []string {
	chain := []string{lang}
	add := func(l string) {
		if l != "" && !slices.Contains(chain, l) {
			chain = append(chain, l)
		}
	}
	for _, l := range extra {
		add(l)
	}
	for _, l := range src.Languages() {
		add(l)
	}
	return chain
}
