// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editorial

import (
	"context"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"mentorocms/internal/models"
	"mentorocms/internal/workflow"
)

// Notes recorded when a section edit sends a published guide to review.
const (
	noteSectionChanged = "Auto: guide section changed"
	noteSectionDeleted = "Auto: guide section deleted"
)

// SaveSection adds or replaces a section of the guide guideID. A zero
// section ID adds a new section. The section's live snapshot is kept; it
// only changes when the guide is published.
func (s *Service) SaveSection(ctx context.Context, guideID uuid.UUID, sec models.Section, actor *models.User) (*SaveResult, error) {
	res := &SaveResult{AutoReview: workflow.AutoReviewNotApplicable}
	err := s.store.InTx(ctx, func(tx Tx) error {
		g, err := lock(ctx, tx, models.KindGuide, guideID)
		if err != nil {
			return err
		}
		res.Entity = g

		idx := -1
		if sec.ID != uuid.Nil {
			idx = slices.IndexFunc(g.Sections, func(x *models.Section) bool { return x.ID == sec.ID })
			if idx < 0 {
				return &NotFoundError{What: "section", ID: sec.ID}
			}
		}
		if sec.Translations == nil {
			sec.Translations = map[string]*models.SectionTranslation{}
		}
		for lang, t := range sec.Translations {
			if len(s.langs) > 0 && !slices.Contains(s.langs, lang) {
				return &models.ValidationError{Field: "language", Language: lang, Message: "not a site language"}
			}
			t.Language = lang
		}
		for _, it := range sec.Items {
			for lang, t := range it.Translations {
				t.Language = lang
			}
		}
		if err := sec.Validate(); err != nil {
			return err
		}

		next := &sec
		next.GuideID = g.ID
		if idx < 0 {
			next.ID = uuid.New()
			next.Live = nil
			for _, it := range next.Items {
				it.ID = uuid.New()
				it.SectionID = next.ID
				it.Live = nil
			}
			g.Sections = append(g.Sections, next)
			res.Changed = true
		} else {
			cur := g.Sections[idx]
			next.Live = cur.Live
			keepItemSnapshots(next, cur)
			res.Changed = sectionChanged(cur, next)
			g.Sections[idx] = next
		}
		if !res.Changed {
			return nil
		}
		return s.saveEdited(ctx, tx, g, actor, noteSectionChanged, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteSection removes a section from the guide guideID.
func (s *Service) DeleteSection(ctx context.Context, guideID, sectionID uuid.UUID, actor *models.User) (*SaveResult, error) {
	res := &SaveResult{Changed: true, AutoReview: workflow.AutoReviewNotApplicable}
	err := s.store.InTx(ctx, func(tx Tx) error {
		g, err := lock(ctx, tx, models.KindGuide, guideID)
		if err != nil {
			return err
		}
		res.Entity = g
		idx := slices.IndexFunc(g.Sections, func(x *models.Section) bool { return x.ID == sectionID })
		if idx < 0 {
			return &NotFoundError{What: "section", ID: sectionID}
		}
		g.Sections = slices.Delete(g.Sections, idx, idx+1)
		if err := tx.DeleteSection(ctx, sectionID); err != nil {
			return err
		}
		return s.saveEdited(ctx, tx, g, actor, noteSectionDeleted, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// keepItemSnapshots carries the live snapshot of items that still exist
// over to the replacement section. An item id that is not one of cur's
// items is replaced with a new id, so the item is created rather than
// overwriting a row of another section.
func keepItemSnapshots(next, cur *models.Section) {
	live := make(map[uuid.UUID]models.LiveSnapshot, len(cur.Items))
	for _, it := range cur.Items {
		live[it.ID] = it.Live
	}
	for _, it := range next.Items {
		snap, ok := live[it.ID]
		if !ok {
			it.ID = uuid.New()
		}
		it.Live = snap
		it.SectionID = next.ID
	}
}

// sectionChanged compares draft data only; snapshots are carried over and
// so never differ.
func sectionChanged(a, b *models.Section) bool {
	if a.Order != b.Order || len(a.Items) != len(b.Items) {
		return true
	}
	if !reflect.DeepEqual(a.Translations, b.Translations) {
		return true
	}
	for i := range a.Items {
		x, y := *a.Items[i], *b.Items[i]
		x.Live, y.Live = nil, nil
		if !reflect.DeepEqual(x, y) {
			return true
		}
	}
	return false
}
