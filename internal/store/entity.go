// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mentorocms/internal/models"
)

// entityColumns lists all columns for entities SELECTs.
const entityColumns = `e.id, e.kind, e.status, e.body_format, e.author_id, e.reviewed_by,
	e.created_at, e.updated_at, e.submitted_for_review_at, e.reviewed_at, e.review_note,
	e.is_published, e.published_at, e.last_published_revision_id, e.live_i18n,
	e.tool_ids, e.score_breakdown, e.winner_id`

// visibleClause restricts to entities that may appear on public pages.
const visibleClause = `(e.status = 'published' OR (e.status = 'review' AND
	(e.last_published_revision_id IS NOT NULL OR e.live_i18n <> '{}'::jsonb)))`

// EntityStore handles entity, translation and guide section persistence.
// All content kinds share the entities table.
type EntityStore struct {
	db DBTX
}

// NewEntityStore creates a new EntityStore on a pool or transaction.
func NewEntityStore(db DBTX) *EntityStore {
	return &EntityStore{db: db}
}

func scanEntity(s scanner) (*models.Entity, error) {
	e := &models.Entity{Translations: map[string]*models.Translation{}}
	var toolIDs, scores []byte
	err := s.Scan(
		&e.ID, &e.Kind, &e.Status, &e.BodyFormat, &e.AuthorID, &e.ReviewerID,
		&e.CreatedAt, &e.UpdatedAt, &e.SubmittedForReviewAt, &e.ReviewedAt, &e.ReviewNote,
		&e.IsPublished, &e.PublishedAt, &e.LastPublishedRevisionID, &e.Live,
		&toolIDs, &scores, &e.WinnerID,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(toolIDs, &e.ToolIDs); err != nil {
		return nil, fmt.Errorf("decode tool ids: %w", err)
	}
	if err := json.Unmarshal(scores, &e.ScoreBreakdown); err != nil {
		return nil, fmt.Errorf("decode score breakdown: %w", err)
	}
	return e, nil
}

func comparisonData(e *models.Entity) (toolIDs, scores []byte, err error) {
	ids := e.ToolIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	if toolIDs, err = json.Marshal(ids); err != nil {
		return nil, nil, fmt.Errorf("encode tool ids: %w", err)
	}
	sb := e.ScoreBreakdown
	if sb == nil {
		sb = map[string]float64{}
	}
	if scores, err = json.Marshal(sb); err != nil {
		return nil, nil, fmt.Errorf("encode score breakdown: %w", err)
	}
	return toolIDs, scores, nil
}

// Create inserts a new entity with its translations and sections.
func (s *EntityStore) Create(ctx context.Context, e *models.Entity) error {
	toolIDs, scores, err := comparisonData(e)
	if err != nil {
		return err
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO entities (id, kind, status, body_format, author_id, review_note,
		                      live_i18n, tool_ids, score_breakdown, winner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, e.ID, e.Kind, e.Status, e.BodyFormat, e.AuthorID, e.ReviewNote,
		e.Live, toolIDs, scores, e.WinnerID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	if err := s.saveTranslations(ctx, e); err != nil {
		return err
	}
	return s.saveSections(ctx, e)
}

// Save writes every column of the entity row, upserts its translations
// and, for guides, its sections and items. Translations are never removed.
func (s *EntityStore) Save(ctx context.Context, e *models.Entity) error {
	toolIDs, scores, err := comparisonData(e)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE entities SET
			status = $1, body_format = $2, author_id = $3, reviewed_by = $4,
			updated_at = NOW(), submitted_for_review_at = $5, reviewed_at = $6,
			review_note = $7, is_published = $8, published_at = $9,
			last_published_revision_id = $10, live_i18n = $11,
			tool_ids = $12, score_breakdown = $13, winner_id = $14
		WHERE id = $15
	`, e.Status, e.BodyFormat, e.AuthorID, e.ReviewerID,
		e.SubmittedForReviewAt, e.ReviewedAt,
		e.ReviewNote, e.IsPublished, e.PublishedAt,
		e.LastPublishedRevisionID, e.Live,
		toolIDs, scores, e.WinnerID, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update entity %s: %w", e.ID, sql.ErrNoRows)
	}
	if err := s.saveTranslations(ctx, e); err != nil {
		return err
	}
	return s.saveSections(ctx, e)
}

// SetLastPublishedRevision stores the revision id returned by the
// revision recorder after a publish.
func (s *EntityStore) SetLastPublishedRevision(ctx context.Context, id uuid.UUID, revisionID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE entities SET last_published_revision_id = $1 WHERE id = $2
	`, revisionID, id)
	if err != nil {
		return fmt.Errorf("set last published revision: %w", err)
	}
	return nil
}

func (s *EntityStore) saveTranslations(ctx context.Context, e *models.Entity) error {
	for _, lang := range e.Languages() {
		t := e.Translations[lang]
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO entity_translations (entity_id, kind, language, title, intro, body,
			                                 outro, slug, public_slug, persona)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (entity_id, language) DO UPDATE SET
				title = EXCLUDED.title, intro = EXCLUDED.intro, body = EXCLUDED.body,
				outro = EXCLUDED.outro, slug = EXCLUDED.slug,
				public_slug = EXCLUDED.public_slug, persona = EXCLUDED.persona
		`, e.ID, e.Kind, lang, t.Title, t.Intro, t.Body, t.Outro, t.Slug, t.PublicSlug, t.Persona)
		if err != nil {
			return fmt.Errorf("save translation %s: %w", lang, err)
		}
	}
	return nil
}

// FindByID retrieves an entity with translations and sections. Returns
// nil if not found.
func (s *EntityStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Entity, error) {
	return s.find(ctx, `SELECT `+entityColumns+` FROM entities e WHERE e.id = $1`, id)
}

// Lock retrieves an entity like FindByID and holds a row lock on it until
// the surrounding transaction ends. Concurrent publishers of the same
// entity serialize here. Returns nil if not found.
func (s *EntityStore) Lock(ctx context.Context, id uuid.UUID) (*models.Entity, error) {
	return s.find(ctx, `SELECT `+entityColumns+` FROM entities e WHERE e.id = $1 FOR UPDATE`, id)
}

func (s *EntityStore) find(ctx context.Context, query string, id uuid.UUID) (*models.Entity, error) {
	e, err := scanEntity(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entity: %w", err)
	}
	if err := s.loadTranslations(ctx, []*models.Entity{e}); err != nil {
		return nil, err
	}
	if e.Kind == models.KindGuide {
		if e.Sections, err = s.loadSections(ctx, e.ID); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// FindBySlug resolves a public URL slug in lang to an entity of kind.
// Live slugs are matched as well as draft ones so links keep working
// while a new draft slug waits for review. Returns nil if not found.
func (s *EntityStore) FindBySlug(ctx context.Context, kind models.ContentKind, lang, slug string) (*models.Entity, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT e.id FROM entities e
		LEFT JOIN entity_translations t ON t.entity_id = e.id AND t.language = $2
		WHERE e.kind = $1 AND (
			e.live_i18n -> $2 ->> 'public_slug' = $3 OR
			e.live_i18n -> $2 ->> 'slug' = $3 OR
			t.public_slug = $3 OR t.slug = $3)
		ORDER BY (e.live_i18n -> $2 ->> 'public_slug' = $3) DESC NULLS LAST
		LIMIT 1
	`, kind, lang, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entity by slug: %w", err)
	}
	return s.FindByID(ctx, id)
}

// SlugTaken reports whether slug is used by another entity of kind in lang.
func (s *EntityStore) SlugTaken(ctx context.Context, kind models.ContentKind, lang, slug string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM entity_translations
			WHERE kind = $1 AND language = $2 AND (slug = $3 OR public_slug = $3) AND entity_id <> $4
		)
	`, kind, lang, slug, exclude).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return taken, nil
}

// ListVisible returns entities of kind that may appear on public pages in
// lang: published ones, and ones back in review that went live before.
// An empty kind matches every kind.
func (s *EntityStore) ListVisible(ctx context.Context, kind models.ContentKind, lang string) ([]*models.Entity, error) {
	return s.list(ctx, `
		WHERE ($1 = '' OR e.kind = $1) AND `+visibleClause+` AND (
			e.live_i18n -> $2 IS NOT NULL OR
			EXISTS (SELECT 1 FROM entity_translations t WHERE t.entity_id = e.id AND t.language = $2))
		ORDER BY e.published_at DESC NULLS LAST, e.created_at DESC
	`, kind, lang)
}

// ListPublished returns published entities of kind with a translation in lang.
func (s *EntityStore) ListPublished(ctx context.Context, kind models.ContentKind, lang string) ([]*models.Entity, error) {
	return s.list(ctx, `
		WHERE ($1 = '' OR e.kind = $1) AND e.status = 'published' AND
			EXISTS (SELECT 1 FROM entity_translations t WHERE t.entity_id = e.id AND t.language = $2)
		ORDER BY e.published_at DESC NULLS LAST
	`, kind, lang)
}

// ListByStatus returns entities of kind in the given status, newest first.
func (s *EntityStore) ListByStatus(ctx context.Context, kind models.ContentKind, status models.Status) ([]*models.Entity, error) {
	return s.list(ctx, `
		WHERE ($1 = '' OR e.kind = $1) AND e.status = $2
		ORDER BY e.updated_at DESC
	`, kind, status)
}

// ReviewQueue returns entities waiting for review, oldest submission first.
func (s *EntityStore) ReviewQueue(ctx context.Context, kind models.ContentKind) ([]*models.Entity, error) {
	return s.list(ctx, `
		WHERE ($1 = '' OR e.kind = $1) AND e.status = 'review'
		ORDER BY e.submitted_for_review_at ASC NULLS LAST, e.updated_at ASC
	`, kind)
}

// ListByAuthor returns an author's unpublished work ("my drafts").
func (s *EntityStore) ListByAuthor(ctx context.Context, kind models.ContentKind, authorID uuid.UUID) ([]*models.Entity, error) {
	return s.list(ctx, `
		WHERE ($1 = '' OR e.kind = $1) AND e.author_id = $2 AND e.status <> 'published'
		ORDER BY e.updated_at DESC
	`, kind, authorID)
}

func (s *EntityStore) list(ctx context.Context, where string, args ...any) ([]*models.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities e `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var items []*models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadTranslations(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// loadTranslations fills Translations for all entities in one query.
func (s *EntityStore) loadTranslations(ctx context.Context, items []*models.Entity) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Entity, len(items))
	ids := make([]string, 0, len(items))
	for _, e := range items {
		byID[e.ID] = e
		ids = append(ids, e.ID.String())
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, language, title, intro, body, outro, slug, public_slug, persona
		FROM entity_translations
		WHERE entity_id = ANY($1::uuid[])
	`, "{"+strings.Join(ids, ",")+"}")
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		t := &models.Translation{}
		if err := rows.Scan(&id, &t.Language, &t.Title, &t.Intro, &t.Body, &t.Outro,
			&t.Slug, &t.PublicSlug, &t.Persona); err != nil {
			return fmt.Errorf("scan translation: %w", err)
		}
		if e := byID[id]; e != nil {
			e.Translations[t.Language] = t
		}
	}
	return rows.Err()
}
