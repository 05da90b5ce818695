// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package live captures and reads the public "live" copy of translated
// content. Publishing freezes a per-language snapshot of selected fields so
// that later draft edits stay invisible to visitors until the next publish.
package live

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"mentorocms/internal/models"
)

// ErrSnapshotInconsistency matches any *SnapshotInconsistencyError.
var ErrSnapshotInconsistency = errors.New("snapshot inconsistency")

// SnapshotInconsistencyError is returned when a publish cannot produce a
// snapshot that covers the entity's draft languages.
type SnapshotInconsistencyError struct {
	EntityID uuid.UUID
	Reason   string
}

func (e *SnapshotInconsistencyError) Error() string {
	return fmt.Sprintf("snapshot inconsistency for %s: %s", e.EntityID, e.Reason)
}

// Is lets errors.Is(err, ErrSnapshotInconsistency) succeed.
func (e *SnapshotInconsistencyError) Is(target error) bool {
	return target == ErrSnapshotInconsistency
}

// Kind classifies the error for status mapping.
func (e *SnapshotInconsistencyError) Kind() string {
	return "snapshot_inconsistency"
}

// Source is anything with per-language draft values: entities, guide
// sections and guide items.
type Source interface {
	Languages() []string
	DraftValue(field, lang string) string
}

// Report lists, per language, the snapshot fields that were written empty.
type Report struct {
	EmptyFields map[string][]string
}

// HasEmpty reports whether any field was captured empty.
func (r Report) HasEmpty() bool {
	return len(r.EmptyFields) > 0
}

// Capture reads fields from every draft language of src into a fresh
// snapshot. Empty values are kept so each entry holds exactly fields.
func Capture(src Source, fields []string) (models.LiveSnapshot, Report) {
	snap := models.LiveSnapshot{}
	report := Report{}
	for _, lang := range src.Languages() {
		entry := make(map[string]string, len(fields))
		for _, f := range fields {
			v := src.DraftValue(f, lang)
			entry[f] = v
			if v == "" {
				if report.EmptyFields == nil {
					report.EmptyFields = map[string][]string{}
				}
				report.EmptyFields[lang] = append(report.EmptyFields[lang], f)
			}
		}
		snap[lang] = entry
	}
	return snap, report
}

// Build captures the entity's snapshot fields for every draft language.
// The result replaces the whole previous snapshot rather than merging.
func Build(e *models.Entity) (models.LiveSnapshot, Report, error) {
	fields := models.SnapshotFields(e.Kind)
	if len(fields) == 0 {
		return nil, Report{}, &SnapshotInconsistencyError{EntityID: e.ID, Reason: fmt.Sprintf("no snapshot fields for kind %q", e.Kind)}
	}
	if len(e.Translations) == 0 {
		return nil, Report{}, &SnapshotInconsistencyError{EntityID: e.ID, Reason: "entity has no translations"}
	}

	snap, report := Capture(e, fields)
	for _, lang := range e.Languages() {
		if _, ok := snap[lang]; !ok {
			return nil, Report{}, &SnapshotInconsistencyError{EntityID: e.ID, Reason: "missing language " + lang}
		}
	}
	return snap, report, nil
}

// Audit reports the snapshot fields of e's live snapshot that hold no
// value, in snapshot field order.
func Audit(e *models.Entity) Report {
	report := Report{}
	fields := models.SnapshotFields(e.Kind)
	for _, lang := range e.Live.Languages() {
		entry := e.Live[lang]
		for _, f := range fields {
			if entry[f] != "" {
				continue
			}
			if report.EmptyFields == nil {
				report.EmptyFields = map[string][]string{}
			}
			report.EmptyFields[lang] = append(report.EmptyFields[lang], f)
		}
	}
	return report
}

// BuildSection replaces the section's snapshot with its current draft.
func BuildSection(s *models.Section) Report {
	snap, report := Capture(s, models.SectionLiveFields)
	s.Live = snap
	return report
}

// BuildItem replaces the item's snapshot with its current draft.
func BuildItem(it *models.Item) Report {
	snap, report := Capture(it, models.ItemLiveFields)
	it.Live = snap
	return report
}

// CascadeSections recomputes the snapshot of every section and item of a
// guide from their current draft values.
func CascadeSections(e *models.Entity) {
	for _, s := range e.Sections {
		BuildSection(s)
		for _, it := range s.Items {
			BuildItem(it)
		}
	}
}

// MirrorPublicSlugs copies slug into public_slug for every language where
// the slug is set and differs. When public_slug is a snapshot field of the
// kind, the live entry of a language is updated too, so the committed live
// value matches the committed draft. It returns the languages changed.
func MirrorPublicSlugs(e *models.Entity) []string {
	snapshotted := slices.Contains(models.SnapshotFields(e.Kind), models.FieldPublicSlug)

	var changed []string
	for _, lang := range e.Languages() {
		t := e.Translations[lang]
		if t.Slug == "" || t.PublicSlug == t.Slug {
			continue
		}
		t.PublicSlug = t.Slug
		if entry, ok := e.Live[lang]; ok && snapshotted {
			entry[models.FieldPublicSlug] = t.Slug
		}
		changed = append(changed, lang)
	}
	return changed
}
