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

	"github.com/google/uuid"

	"mentorocms/internal/models"
)

// revisionColumns lists all columns for entity_revisions SELECTs.
const revisionColumns = `id, entity_id, kind, status, comment, payload, created_by, created_at`

// RevisionStore records point-in-time copies of entities after workflow
// transitions. It is independent of the live snapshot.
type RevisionStore struct {
	db DBTX
}

// NewRevisionStore creates a new RevisionStore on a pool or transaction.
func NewRevisionStore(db DBTX) *RevisionStore {
	return &RevisionStore{db: db}
}

func scanRevision(s scanner) (*models.Revision, error) {
	var r models.Revision
	var payload []byte
	err := s.Scan(&r.ID, &r.EntityID, &r.Kind, &r.Status, &r.Comment, &payload, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Payload = json.RawMessage(payload)
	return &r, nil
}

// Record stores a revision of e as it is now and returns its id.
func (s *RevisionStore) Record(ctx context.Context, e *models.Entity, createdBy *uuid.UUID, comment string) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("encode revision payload: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO entity_revisions (entity_id, kind, status, comment, payload, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, e.ID, e.Kind, e.Status, comment, payload, createdBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record revision: %w", err)
	}
	return id, nil
}

// ListByEntity returns all revisions of an entity, newest first.
func (s *RevisionStore) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*models.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM entity_revisions
		WHERE entity_id = $1
		ORDER BY created_at DESC, id DESC
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*models.Revision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}

// FindByID returns a single revision. Returns nil if not found.
func (s *RevisionStore) FindByID(ctx context.Context, id int64) (*models.Revision, error) {
	r, err := scanRevision(s.db.QueryRowContext(ctx, `
		SELECT `+revisionColumns+` FROM entity_revisions WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find revision: %w", err)
	}
	return r, nil
}

// Count returns the number of revisions of an entity.
func (s *RevisionStore) Count(ctx context.Context, entityID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entity_revisions WHERE entity_id = $1
	`, entityID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return count, nil
}
