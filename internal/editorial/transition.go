// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editorial

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"mentorocms/internal/models"
	"mentorocms/internal/workflow"
)

// Failure is one entity a bulk action could not transition.
type Failure struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
	Kind   string    `json:"kind"`
}

// BatchReport summarizes a bulk action. One entity failing never stops
// the others.
type BatchReport struct {
	Transition workflow.Transition `json:"transition"`
	Succeeded  int                 `json:"succeeded"`
	Failures   []Failure           `json:"failures"`
}

// Transition applies t to the entity id as actor in one transaction. When
// kind is not empty the entity must be of that kind.
func (s *Service) Transition(ctx context.Context, kind models.ContentKind, id uuid.UUID, t workflow.Transition, actor *models.User, note string) (*workflow.Outcome, error) {
	var out *workflow.Outcome
	var e *models.Entity
	var wasVisible bool
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if e, err = lock(ctx, tx, kind, id); err != nil {
			return err
		}
		wasVisible = e.VisibleOnSite()
		if out, err = s.machine.Apply(e, t, actor, note); err != nil {
			return err
		}
		if err := tx.Save(ctx, e); err != nil {
			return err
		}
		rev, err := tx.Record(ctx, e, userID(actor), "Admin-Action: "+string(t))
		if err != nil {
			return err
		}
		if t == workflow.Publish {
			e.LastPublishedRevisionID = &rev
			return tx.SetLastPublishedRevision(ctx, e.ID, rev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("workflow transition applied",
		"entity", e.ID, "kind", e.Kind, "transition", t,
		"from", out.From, "to", out.To, "user", userID(actor))

	// Publish replaces what the site shows even when it was already visible.
	if t == workflow.Publish || wasVisible != e.VisibleOnSite() {
		s.invalidate(ctx, e, string(t))
	}
	return out, nil
}

// Bulk applies t to every id, each in its own transaction, and reports
// per-entity results.
func (s *Service) Bulk(ctx context.Context, kind models.ContentKind, ids []uuid.UUID, t workflow.Transition, actor *models.User, note string) *BatchReport {
	report := &BatchReport{Transition: t, Failures: []Failure{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, Failure{ID: id, Reason: err.Error(), Kind: workflow.KindInternal})
			continue
		}
		if _, err := s.Transition(ctx, kind, id, t, actor, note); err != nil {
			report.Failures = append(report.Failures, Failure{ID: id, Reason: err.Error(), Kind: workflow.KindOf(err)})
			continue
		}
		report.Succeeded++
	}
	if len(report.Failures) > 0 {
		slog.Warn("bulk transition finished with failures",
			"transition", t, "succeeded", report.Succeeded, "failed", len(report.Failures))
	}
	return report
}

// invalidate drops the entity's cached public pages after a visibility
// change. Cache failures never fail the transition.
func (s *Service) invalidate(ctx context.Context, e *models.Entity, action string) {
	if s.cache != nil {
		s.cache.InvalidateEntity(ctx, e.Kind, e.ID)
	}
	if s.cacheLog != nil {
		s.cacheLog.Log(ctx, string(e.Kind), e.ID, action)
	}
}
