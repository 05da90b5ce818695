// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editorial

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"mentorocms/internal/models"
	"mentorocms/internal/slug"
	"mentorocms/internal/workflow"
)

// Draft is an edit to an entity's draft values. Translations maps a
// language to field values; fields not listed keep their value. Nil
// comparison fields are left untouched.
type Draft struct {
	Translations   map[string]map[string]string `json:"translations"`
	BodyFormat     models.BodyFormat            `json:"body_format,omitempty"`
	ToolIDs        []uuid.UUID                  `json:"tool_ids,omitempty"`
	ScoreBreakdown map[string]float64           `json:"score_breakdown,omitempty"`
	WinnerID       *uuid.UUID                   `json:"winner_id,omitempty"`
}

// SaveResult describes a saved edit.
type SaveResult struct {
	Entity  *models.Entity `json:"entity"`
	Changed bool           `json:"changed"`
	// AutoReview is what happened to the status of a published entity.
	// AutoReviewSkipped means the edit was saved but the entity stayed
	// published without re-review.
	AutoReview workflow.AutoReviewResult `json:"auto_review"`
}

// apply merges d into e and reports whether anything changed.
func (d *Draft) apply(e *models.Entity, langs []string) (bool, error) {
	changed := false
	for _, lang := range slices.Sorted(maps.Keys(d.Translations)) {
		if len(langs) > 0 && !slices.Contains(langs, lang) {
			return false, &models.ValidationError{Field: "language", Language: lang, Message: "not a site language"}
		}
		fields := d.Translations[lang]
		t := e.Translation(lang)
		if t == nil {
			t = &models.Translation{Language: lang}
		}
		next := *t
		for _, name := range slices.Sorted(maps.Keys(fields)) {
			if !next.SetField(name, fields[name]) {
				return false, &models.ValidationError{Field: name, Language: lang, Message: "unknown field"}
			}
		}
		if e.Translation(lang) == nil || next != *t {
			e.EnsureTranslation(lang)
			*e.Translations[lang] = next
			changed = true
		}
	}

	if d.BodyFormat != "" && d.BodyFormat != e.BodyFormat {
		if d.BodyFormat != models.BodyFormatHTML && d.BodyFormat != models.BodyFormatMarkdown {
			return false, &models.ValidationError{Field: "body_format", Message: "must be html or markdown"}
		}
		e.BodyFormat = d.BodyFormat
		changed = true
	}
	if d.ToolIDs != nil && !slices.Equal(d.ToolIDs, e.ToolIDs) {
		e.ToolIDs = slices.Clone(d.ToolIDs)
		changed = true
	}
	if d.ScoreBreakdown != nil && !maps.Equal(d.ScoreBreakdown, e.ScoreBreakdown) {
		e.ScoreBreakdown = maps.Clone(d.ScoreBreakdown)
		changed = true
	}
	if d.WinnerID != nil && (e.WinnerID == nil || *e.WinnerID != *d.WinnerID) {
		id := *d.WinnerID
		e.WinnerID = &id
		changed = true
	}
	return changed, nil
}

// Create stores a new draft entity of kind authored by actor.
func (s *Service) Create(ctx context.Context, kind models.ContentKind, d Draft, actor *models.User) (*models.Entity, error) {
	if !kind.Valid() {
		return nil, &models.ValidationError{Field: "kind", Message: "unknown content kind"}
	}
	e := models.NewEntity(kind, userID(actor))
	if _, err := d.apply(e, s.langs); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := s.ensureSlugs(ctx, tx, e); err != nil {
			return err
		}
		if err := e.Validate(); err != nil {
			return err
		}
		if err := tx.Create(ctx, e); err != nil {
			return err
		}
		_, err := tx.Record(ctx, e, userID(actor), "Created")
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("entity created", "entity", e.ID, "kind", e.Kind, "user", userID(actor))
	return e, nil
}

// SaveDraft applies d to the entity id. Editing a published entity first
// moves it back to review when actor may submit it; otherwise the edit is
// saved and the result reports AutoReviewSkipped.
func (s *Service) SaveDraft(ctx context.Context, kind models.ContentKind, id uuid.UUID, d Draft, actor *models.User) (*SaveResult, error) {
	res := &SaveResult{AutoReview: workflow.AutoReviewNotApplicable}
	err := s.store.InTx(ctx, func(tx Tx) error {
		e, err := lock(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		res.Entity = e
		if res.Changed, err = d.apply(e, s.langs); err != nil {
			return err
		}
		if !res.Changed {
			return nil
		}
		return s.saveEdited(ctx, tx, e, actor, "Auto: content changed", res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// saveEdited runs auto-review on an edited entity, validates it and writes
// it together with a revision.
func (s *Service) saveEdited(ctx context.Context, tx Tx, e *models.Entity, actor *models.User, note string, res *SaveResult) error {
	res.AutoReview = s.machine.AutoReview(e, actor, note)
	if err := s.ensureSlugs(ctx, tx, e); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := tx.Save(ctx, e); err != nil {
		return err
	}
	comment := "Changed"
	if res.AutoReview == workflow.AutoReviewTransitioned {
		comment = note
	}
	_, err := tx.Record(ctx, e, userID(actor), comment)
	return err
}

// ensureSlugs derives a slug from the title for translations that have
// none, keeping it unique per kind and language.
func (s *Service) ensureSlugs(ctx context.Context, tx Tx, e *models.Entity) error {
	for _, lang := range e.Languages() {
		t := e.Translations[lang]
		if t.Slug != "" || t.Title == "" {
			continue
		}
		base := slug.Generate(t.Title)
		if base == "" {
			continue
		}
		v, err := slug.Unique(base, func(c string) (bool, error) {
			return tx.SlugTaken(ctx, e.Kind, lang, c, e.ID)
		})
		if err != nil {
			return err
		}
		t.Slug = v
	}
	return nil
}
