// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editorial

import (
	"context"

	"github.com/google/uuid"

	"mentorocms/internal/models"
	"mentorocms/internal/review"
	"mentorocms/internal/workflow"
)

// Get loads an entity. A non-empty kind must match.
func (s *Service) Get(ctx context.Context, kind models.ContentKind, id uuid.UUID) (*models.Entity, error) {
	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || (kind != "" && e.Kind != kind) {
		return nil, &NotFoundError{What: "entity", ID: id}
	}
	return e, nil
}

// Diff compares the entity's drafts with what is live, per language.
func (s *Service) Diff(ctx context.Context, kind models.ContentKind, id uuid.UUID) ([]review.LanguageComparison, error) {
	e, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return review.Compare(e, s.langs, s.defLang), nil
}

// Available lists the transitions actor may apply to the entity now.
func (s *Service) Available(ctx context.Context, kind models.ContentKind, id uuid.UUID, actor *models.User) ([]workflow.Transition, error) {
	e, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.machine.Available(e, actor), nil
}

// ReviewQueue lists entities waiting for review, oldest first.
func (s *Service) ReviewQueue(ctx context.Context, kind models.ContentKind) ([]*models.Entity, error) {
	return s.store.ReviewQueue(ctx, kind)
}

// MyDrafts lists actor's unpublished work.
func (s *Service) MyDrafts(ctx context.Context, kind models.ContentKind, actor *models.User) ([]*models.Entity, error) {
	if actor == nil {
		return nil, nil
	}
	return s.store.ListByAuthor(ctx, kind, actor.ID)
}

// ListByStatus lists entities of kind in status.
func (s *Service) ListByStatus(ctx context.Context, kind models.ContentKind, status models.Status) ([]*models.Entity, error) {
	if !status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: "unknown status"}
	}
	return s.store.ListByStatus(ctx, kind, status)
}

// Visible lists the entities of kind shown on the site in lang.
func (s *Service) Visible(ctx context.Context, kind models.ContentKind, lang string) ([]*models.Entity, error) {
	return s.store.ListVisible(ctx, kind, lang)
}

// VisibleBySlug resolves a public slug to an entity shown on the site.
// Entities that are not visible are reported as not found.
func (s *Service) VisibleBySlug(ctx context.Context, kind models.ContentKind, lang, slug string) (*models.Entity, error) {
	e, err := s.store.FindBySlug(ctx, kind, lang, slug)
	if err != nil {
		return nil, err
	}
	if e == nil || !e.VisibleOnSite() {
		return nil, nil
	}
	return e, nil
}
