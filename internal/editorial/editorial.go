// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editorial runs the workflow against storage. Every transition and
// every edit happens inside one transaction that locks the entity row, so a
// change either commits together with its snapshot, audit fields and
// revision, or not at all.
package editorial

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mentorocms/internal/models"
	"mentorocms/internal/workflow"
)

// KindNotFound classifies a missing entity or section.
const KindNotFound = "not_found"

// ErrNotFound is matched by NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports an entity or guide section that does not exist.
type NotFoundError struct {
	What string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Kind() string { return KindNotFound }

// RevisionRecorder stores a copy of an entity after a change and returns
// the new revision id.
type RevisionRecorder interface {
	Record(ctx context.Context, e *models.Entity, createdBy *uuid.UUID, comment string) (int64, error)
}

// Tx is the set of writes available inside a transaction.
type Tx interface {
	RevisionRecorder

	// Lock loads an entity and holds its row lock until the transaction
	// ends. Returns nil if not found.
	Lock(ctx context.Context, id uuid.UUID) (*models.Entity, error)
	Create(ctx context.Context, e *models.Entity) error
	Save(ctx context.Context, e *models.Entity) error
	DeleteSection(ctx context.Context, id uuid.UUID) error
	SetLastPublishedRevision(ctx context.Context, id uuid.UUID, revisionID int64) error
	SlugTaken(ctx context.Context, kind models.ContentKind, lang, slug string, exclude uuid.UUID) (bool, error)
}

// Store loads entities and opens transactions.
type Store interface {
	// InTx runs fn in a transaction, committing if it returns nil.
	InTx(ctx context.Context, fn func(Tx) error) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.Entity, error)
	FindBySlug(ctx context.Context, kind models.ContentKind, lang, slug string) (*models.Entity, error)
	ListVisible(ctx context.Context, kind models.ContentKind, lang string) ([]*models.Entity, error)
	ListByStatus(ctx context.Context, kind models.ContentKind, status models.Status) ([]*models.Entity, error)
	ReviewQueue(ctx context.Context, kind models.ContentKind) ([]*models.Entity, error)
	ListByAuthor(ctx context.Context, kind models.ContentKind, authorID uuid.UUID) ([]*models.Entity, error)
}

// Invalidator drops cached public pages of an entity.
type Invalidator interface {
	InvalidateEntity(ctx context.Context, kind models.ContentKind, id uuid.UUID)
}

// InvalidationLog records cache invalidations.
type InvalidationLog interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string)
}

// Options configures a Service. Cache and CacheLog may be nil.
type Options struct {
	Languages       []string
	DefaultLanguage string
	Cache           Invalidator
	CacheLog        InvalidationLog
}

// Service applies workflow transitions and draft edits atomically.
type Service struct {
	machine  *workflow.Machine
	store    Store
	langs    []string
	defLang  string
	cache    Invalidator
	cacheLog InvalidationLog
}

// New creates a Service.
func New(machine *workflow.Machine, st Store, opts Options) *Service {
	def := opts.DefaultLanguage
	if def == "" && len(opts.Languages) > 0 {
		def = opts.Languages[0]
	}
	return &Service{
		machine:  machine,
		store:    st,
		langs:    opts.Languages,
		defLang:  def,
		cache:    opts.Cache,
		cacheLog: opts.CacheLog,
	}
}

// Machine returns the workflow machine the service applies.
func (s *Service) Machine() *workflow.Machine {
	return s.machine
}

// Languages returns the site languages.
func (s *Service) Languages() []string {
	return s.langs
}

// DefaultLanguage returns the site's default language.
func (s *Service) DefaultLanguage() string {
	return s.defLang
}

// lock loads id for update or fails with NotFoundError. A non-empty kind
// must match the entity's kind.
func lock(ctx context.Context, tx Tx, kind models.ContentKind, id uuid.UUID) (*models.Entity, error) {
	e, err := tx.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || (kind != "" && e.Kind != kind) {
		return nil, &NotFoundError{What: "entity", ID: id}
	}
	return e, nil
}

func userID(u *models.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
