// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editorial

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"mentorocms/internal/models"
	"mentorocms/internal/store"
)

// sqlStore adapts the PostgreSQL stores to Store.
type sqlStore struct {
	*store.EntityStore
	db *sql.DB
}

// sqlTx binds the stores to one transaction.
type sqlTx struct {
	*store.EntityStore
	revisions *store.RevisionStore
}

// NewSQLStore returns a Store backed by db.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{EntityStore: store.NewEntityStore(db), db: db}
}

func (s *sqlStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&sqlTx{
			EntityStore: store.NewEntityStore(tx),
			revisions:   store.NewRevisionStore(tx),
		})
	})
}

func (t *sqlTx) Record(ctx context.Context, e *models.Entity, createdBy *uuid.UUID, comment string) (int64, error) {
	return t.revisions.Record(ctx, e, createdBy, comment)
}
