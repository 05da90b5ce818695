// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mentorocms/internal/models"
)

// Upserts never move a row to another parent.
var (
	ErrForeignSection = errors.New("section belongs to another guide")
	ErrForeignItem    = errors.New("guide item belongs to another section")
)

// requireRow fails with errFor when an upsert's conflict clause skipped
// the row.
func requireRow(res sql.Result, errFor error, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", errFor, id)
	}
	return nil
}

// saveSections upserts a guide's sections and items with their
// translations and live snapshots.
func (s *EntityStore) saveSections(ctx context.Context, e *models.Entity) error {
	for _, sec := range e.Sections {
		if sec.ID == uuid.Nil {
			sec.ID = uuid.New()
		}
		sec.GuideID = e.ID
		if err := s.SaveSection(ctx, sec); err != nil {
			return err
		}
	}
	return nil
}

// SaveSection upserts one section, its translations and its items. Items
// no longer listed in sec are deleted.
func (s *EntityStore) SaveSection(ctx context.Context, sec *models.Section) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO guide_sections (id, guide_id, sort_order, live_i18n)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			sort_order = EXCLUDED.sort_order, live_i18n = EXCLUDED.live_i18n
		WHERE guide_sections.guide_id = EXCLUDED.guide_id
	`, sec.ID, sec.GuideID, sec.Order, sec.Live)
	if err != nil {
		return fmt.Errorf("save section: %w", err)
	}
	if err := requireRow(res, ErrForeignSection, sec.ID); err != nil {
		return err
	}
	for _, lang := range sec.Languages() {
		t := sec.Translations[lang]
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO guide_section_translations (section_id, language, title, body)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (section_id, language) DO UPDATE SET
				title = EXCLUDED.title, body = EXCLUDED.body
		`, sec.ID, lang, t.Title, t.Body)
		if err != nil {
			return fmt.Errorf("save section translation %s: %w", lang, err)
		}
	}
	keep := make([]string, 0, len(sec.Items))
	for _, it := range sec.Items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.SectionID = sec.ID
		if err := s.saveItem(ctx, it); err != nil {
			return err
		}
		keep = append(keep, it.ID.String())
	}
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM guide_items WHERE section_id = $1 AND NOT (id = ANY($2::uuid[]))
	`, sec.ID, "{"+strings.Join(keep, ",")+"}")
	if err != nil {
		return fmt.Errorf("prune guide items: %w", err)
	}
	return nil
}

func (s *EntityStore) saveItem(ctx context.Context, it *models.Item) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO guide_items (id, section_id, kind, target_id, url, sort_order, is_published, live_i18n)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind, target_id = EXCLUDED.target_id, url = EXCLUDED.url,
			sort_order = EXCLUDED.sort_order, is_published = EXCLUDED.is_published,
			live_i18n = EXCLUDED.live_i18n
		WHERE guide_items.section_id = EXCLUDED.section_id
	`, it.ID, it.SectionID, it.Kind, it.TargetID, it.URL, it.Order, it.IsPublished, it.Live)
	if err != nil {
		return fmt.Errorf("save guide item: %w", err)
	}
	if err := requireRow(res, ErrForeignItem, it.ID); err != nil {
		return err
	}
	for _, lang := range it.Languages() {
		t := it.Translations[lang]
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO guide_item_translations (item_id, language, title, teaser)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (item_id, language) DO UPDATE SET
				title = EXCLUDED.title, teaser = EXCLUDED.teaser
		`, it.ID, lang, t.Title, t.Teaser)
		if err != nil {
			return fmt.Errorf("save guide item translation %s: %w", lang, err)
		}
	}
	return nil
}

// DeleteSection removes a section and, by cascade, its items.
func (s *EntityStore) DeleteSection(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM guide_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// loadSections returns a guide's sections in order with items attached.
func (s *EntityStore) loadSections(ctx context.Context, guideID uuid.UUID) ([]*models.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guide_id, sort_order, live_i18n
		FROM guide_sections WHERE guide_id = $1
		ORDER BY sort_order, id
	`, guideID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	defer rows.Close()

	var sections []*models.Section
	byID := map[uuid.UUID]*models.Section{}
	for rows.Next() {
		sec := &models.Section{Translations: map[string]*models.SectionTranslation{}}
		if err := rows.Scan(&sec.ID, &sec.GuideID, &sec.Order, &sec.Live); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, sec)
		byID[sec.ID] = sec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, nil
	}

	if err := s.loadSectionTranslations(ctx, guideID, byID); err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, guideID, byID); err != nil {
		return nil, err
	}
	return sections, nil
}

func (s *EntityStore) loadSectionTranslations(ctx context.Context, guideID uuid.UUID, byID map[uuid.UUID]*models.Section) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.section_id, st.language, st.title, st.body
		FROM guide_section_translations st
		JOIN guide_sections gs ON gs.id = st.section_id
		WHERE gs.guide_id = $1
	`, guideID)
	if err != nil {
		return fmt.Errorf("load section translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		t := &models.SectionTranslation{}
		if err := rows.Scan(&id, &t.Language, &t.Title, &t.Body); err != nil {
			return fmt.Errorf("scan section translation: %w", err)
		}
		if sec := byID[id]; sec != nil {
			sec.Translations[t.Language] = t
		}
	}
	return rows.Err()
}

func (s *EntityStore) loadItems(ctx context.Context, guideID uuid.UUID, sections map[uuid.UUID]*models.Section) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gi.id, gi.section_id, gi.kind, gi.target_id, gi.url, gi.sort_order,
		       gi.is_published, gi.live_i18n
		FROM guide_items gi
		JOIN guide_sections gs ON gs.id = gi.section_id
		WHERE gs.guide_id = $1
		ORDER BY gi.sort_order, gi.id
	`, guideID)
	if err != nil {
		return fmt.Errorf("load guide items: %w", err)
	}
	defer rows.Close()

	items := map[uuid.UUID]*models.Item{}
	for rows.Next() {
		it := &models.Item{Translations: map[string]*models.ItemTranslation{}}
		if err := rows.Scan(&it.ID, &it.SectionID, &it.Kind, &it.TargetID, &it.URL,
			&it.Order, &it.IsPublished, &it.Live); err != nil {
			return fmt.Errorf("scan guide item: %w", err)
		}
		if sec := sections[it.SectionID]; sec != nil {
			sec.Items = append(sec.Items, it)
			items[it.ID] = it
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	trows, err := s.db.QueryContext(ctx, `
		SELECT t.item_id, t.language, t.title, t.teaser
		FROM guide_item_translations t
		JOIN guide_items gi ON gi.id = t.item_id
		JOIN guide_sections gs ON gs.id = gi.section_id
		WHERE gs.guide_id = $1
	`, guideID)
	if err != nil {
		return fmt.Errorf("load guide item translations: %w", err)
	}
	defer trows.Close()

	for trows.Next() {
		var id uuid.UUID
		t := &models.ItemTranslation{}
		if err := trows.Scan(&id, &t.Language, &t.Title, &t.Teaser); err != nil {
			return fmt.Errorf("scan guide item translation: %w", err)
		}
		if it := items[id]; it != nil {
			it.Translations[t.Language] = t
		}
	}
	return trows.Err()
}
