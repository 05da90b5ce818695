// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package review computes the differences between an entity's draft and
// what is live on the site, per language, for editors deciding whether to
// publish. It only reads; nothing here mutates an entity.
package review

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"mentorocms/internal/markdown"
	"mentorocms/internal/models"
)

// Sub-item change kinds.
const (
	Added   = "added"
	Changed = "changed"
)

// FieldDiff is one changed field, rendered as inline HTML on both sides.
type FieldDiff struct {
	Field string `json:"field"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// SectionDiff reports a guide section or item that is new or changed.
type SectionDiff struct {
	ID     uuid.UUID   `json:"id"`
	Label  string      `json:"label"`
	Kind   string      `json:"kind"`
	Fields []FieldDiff `json:"fields"`
}

// InlineDiff renders a character-level diff of a against b. Both sides are
// HTML-escaped; removed runs are wrapped in <del> on the left and inserted
// runs in <ins> on the right.
func InlineDiff(a, b string) (left, right string) {
	ar, br := splitRunes(a), splitRunes(b)
	m := difflib.NewMatcher(ar, br)

	var l, r strings.Builder
	for _, op := range m.GetOpCodes() {
		aPart := html.EscapeString(strings.Join(ar[op.I1:op.I2], ""))
		bPart := html.EscapeString(strings.Join(br[op.J1:op.J2], ""))
		switch op.Tag {
		case 'e':
			l.WriteString(aPart)
			r.WriteString(bPart)
		case 'r':
			l.WriteString("<del class='diff-del'>" + aPart + "</del>")
			r.WriteString("<ins class='diff-ins'>" + bPart + "</ins>")
		case 'd':
			l.WriteString("<del class='diff-del'>" + aPart + "</del>")
		case 'i':
			r.WriteString("<ins class='diff-ins'>" + bPart + "</ins>")
		}
	}
	return l.String(), r.String()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// StripHTML returns the text content of an HTML fragment. Contents of
// script and style elements are dropped; entities are decoded.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawText(tag []byte) bool {
	return string(tag) == "script" || string(tag) == "style"
}

// FieldDiffs compares draft values (left) with live values (right) for the
// given fields in order. Rich-text fields are compared as text.
func FieldDiffs(left, right map[string]string, fields []string) []FieldDiff {
	var out []FieldDiff
	for _, f := range fields {
		lv := norm.NFC.String(left[f])
		rv := norm.NFC.String(right[f])
		if lv == rv {
			continue
		}
		if models.IsHTMLField(f) {
			lv, rv = StripHTML(lv), StripHTML(rv)
		}
		l, r := InlineDiff(lv, rv)
		out = append(out, FieldDiff{Field: f, Left: l, Right: r})
	}
	return out
}

// SectionDiffs compares each section and item of a guide with its own
// live snapshot in lang. Sub-items only present in the draft are Added,
// those with differing fields are Changed, and the rest are omitted.
func SectionDiffs(g *models.Entity, lang string) []SectionDiff {
	var out []SectionDiff
	for _, s := range g.Sections {
		if d, ok := subDiff(s, models.SectionLiveFields, lang, g.BodyFormat); ok {
			d.ID = s.ID
			d.Label = s.Label(lang)
			out = append(out, d)
		}
		for _, it := range s.Items {
			if d, ok := subDiff(it, models.ItemLiveFields, lang, g.BodyFormat); ok {
				d.ID = it.ID
				d.Label = s.Label(lang) + " › " + it.Label(lang)
				out = append(out, d)
			}
		}
	}
	return out
}

type subItem interface {
	DraftValue(field, lang string) string
	LiveValue(field, lang string) string
}

func subDiff(src subItem, fields []string, lang string, format models.BodyFormat) (SectionDiff, bool) {
	left := make(map[string]string, len(fields))
	right := make(map[string]string, len(fields))
	var hasDraft, hasLive bool
	for _, f := range fields {
		left[f] = renderField(f, src.DraftValue(f, lang), format)
		right[f] = renderField(f, src.LiveValue(f, lang), format)
		hasDraft = hasDraft || left[f] != ""
		hasLive = hasLive || right[f] != ""
	}

	switch {
	case !hasDraft && !hasLive:
		return SectionDiff{}, false
	case hasDraft && !hasLive:
		d := SectionDiff{Kind: Added}
		for _, f := range fields {
			v := left[f]
			if models.IsHTMLField(f) {
				v = StripHTML(v)
			}
			l, r := InlineDiff(v, "")
			d.Fields = append(d.Fields, FieldDiff{Field: f, Left: l, Right: r})
		}
		return d, true
	}

	changed := FieldDiffs(left, right, fields)
	if len(changed) == 0 {
		return SectionDiff{}, false
	}
	return SectionDiff{Kind: Changed, Fields: changed}, true
}

// renderField turns Markdown rich text into HTML so it can be stripped the
// same way as HTML content.
func renderField(field, value string, format models.BodyFormat) string {
	return markdown.Field(value, format == models.BodyFormatMarkdown && models.IsHTMLField(field))
}
