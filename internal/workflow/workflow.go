// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workflow implements the editorial state machine shared by all
// content kinds. Transitions are validated against a fixed table, gated by
// an injected authz.Policy and applied in memory only; persisting the
// mutated entity is the caller's job.
package workflow

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"mentorocms/internal/authz"
	"mentorocms/internal/live"
	"mentorocms/internal/models"
)

// Transition names a guarded status change.
type Transition string

const (
	SubmitForReview Transition = "submit_for_review"
	MoveToReview    Transition = "move_to_review"
	RequestRework   Transition = "request_rework"
	Publish         Transition = "publish"
	Archive         Transition = "archive"
	Restore         Transition = "restore"
)

// Transitions lists every transition in table order.
var Transitions = []Transition{SubmitForReview, MoveToReview, RequestRework, Publish, Archive, Restore}

// ParseTransition maps a name from a URL or CLI argument to a Transition.
func ParseTransition(name string) (Transition, bool) {
	t := Transition(name)
	_, ok := table[t]
	return t, ok
}

type rule struct {
	sources    []models.Status
	target     models.Status
	permission authz.Permission
}

var table = map[Transition]rule{
	SubmitForReview: {
		sources:    []models.Status{models.StatusDraft, models.StatusRework, models.StatusPublished},
		target:     models.StatusReview,
		permission: authz.PermSubmitForReview,
	},
	MoveToReview: {
		sources:    []models.Status{models.StatusPublished},
		target:     models.StatusReview,
		permission: authz.PermSubmitForReview,
	},
	RequestRework: {
		sources:    []models.Status{models.StatusReview},
		target:     models.StatusRework,
		permission: authz.PermRequestRework,
	},
	Publish: {
		sources:    []models.Status{models.StatusReview},
		target:     models.StatusPublished,
		permission: authz.PermPublish,
	},
	Archive: {
		sources:    models.Statuses,
		target:     models.StatusArchived,
		permission: authz.PermArchive,
	},
	Restore: {
		sources:    []models.Status{models.StatusArchived},
		target:     models.StatusDraft,
		permission: authz.PermRestore,
	},
}

// Target returns the status a transition leads to.
func (t Transition) Target() models.Status {
	return table[t].target
}

// Permission returns the permission that gates the transition.
func (t Transition) Permission() authz.Permission {
	return table[t].permission
}

// ValidFrom reports whether the transition may start from status s.
func (t Transition) ValidFrom(s models.Status) bool {
	r, ok := table[t]
	return ok && slices.Contains(r.sources, s)
}

// Outcome describes a transition that was applied.
type Outcome struct {
	Transition Transition
	From       models.Status
	To         models.Status

	// EmptyFields lists, per language, snapshot fields published empty.
	EmptyFields map[string][]string
}

// AutoReviewResult tells the caller what happened to a published entity
// that was edited.
type AutoReviewResult string

const (
	AutoReviewTransitioned  AutoReviewResult = "transitioned"
	AutoReviewSkipped       AutoReviewResult = "skipped"
	AutoReviewNotApplicable AutoReviewResult = "not_applicable"
)

// Machine applies transitions to entities.
type Machine struct {
	policy *authz.Policy
	now    func() time.Time
	hooks  map[models.ContentKind][]PublishHook
}

// NewMachine returns a machine gated by policy with the default
// post-publish hooks registered.
func NewMachine(policy *authz.Policy) *Machine {
	m := &Machine{
		policy: policy,
		now:    time.Now,
		hooks:  map[models.ContentKind][]PublishHook{},
	}
	for _, k := range models.Kinds {
		m.Register(k, MirrorSlugs{})
	}
	m.Register(models.KindGuide, CascadeGuide{})
	return m
}

// SetClock replaces the time source. Used by tests.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// Register adds a post-publish hook for kind. Hooks run in registration
// order.
func (m *Machine) Register(kind models.ContentKind, h PublishHook) {
	m.hooks[kind] = append(m.hooks[kind], h)
}

// Policy returns the permission policy the machine enforces.
func (m *Machine) Policy() *authz.Policy {
	return m.policy
}

// Check reports whether actor may apply t to e right now, without
// changing anything. It returns the same errors Apply would.
func (m *Machine) Check(e *models.Entity, t Transition, actor *models.User) error {
	r, ok := table[t]
	if !ok || !slices.Contains(r.sources, e.Status) {
		return &InvalidTransitionError{Transition: t, Status: e.Status}
	}
	if !m.policy.Allowed(r.permission, actor, e) {
		fe := &ForbiddenError{Transition: t, Permission: r.permission}
		if actor != nil {
			id := actor.ID
			fe.UserID = &id
		}
		return fe
	}
	return nil
}

// Available lists the transitions actor may apply to e, in table order.
func (m *Machine) Available(e *models.Entity, actor *models.User) []Transition {
	var out []Transition
	for _, t := range Transitions {
		if m.Check(e, t, actor) == nil {
			out = append(out, t)
		}
	}
	return out
}

// Apply runs transition t on e as actor. Nothing is mutated unless the
// transition is valid from the current status, the actor holds its
// permission and, for publish, the live snapshot could be built.
func (m *Machine) Apply(e *models.Entity, t Transition, actor *models.User, note string) (*Outcome, error) {
	if err := m.Check(e, t, actor); err != nil {
		return nil, err
	}

	out := &Outcome{Transition: t, From: e.Status, To: table[t].target}

	var snap models.LiveSnapshot
	if t == Publish {
		var err error
		if snap, _, err = live.Build(e); err != nil {
			return nil, err
		}
	}

	now := m.now()
	switch t {
	case SubmitForReview:
		e.SubmittedForReviewAt = &now
	case MoveToReview:
		setNote(e, note)
	case RequestRework:
		e.ReviewedAt = &now
		e.ReviewerID = actorID(actor)
		e.ReviewNote = note
	case Publish:
		e.ReviewedAt = &now
		e.ReviewerID = actorID(actor)
		if e.PublishedAt == nil {
			e.PublishedAt = &now
		}
		setNote(e, note)
		e.IsPublished = true
		e.Live = snap
	case Archive, Restore:
		setNote(e, note)
		e.IsPublished = false
	}
	e.Status = out.To
	e.UpdatedAt = now

	if t == Publish {
		for _, h := range m.hooks[e.Kind] {
			h.AfterPublish(e)
		}
		// Hooks may fill live fields, so report on what gets committed.
		out.EmptyFields = live.Audit(e).EmptyFields
		if len(out.EmptyFields) > 0 {
			slog.Warn("published with empty snapshot fields", "entity", e.ID, "kind", e.Kind, "empty", out.EmptyFields)
		}
	}
	return out, nil
}

// AutoReview sends a published entity back to review because it is being
// edited. An actor without submit_for_review leaves the status unchanged;
// that case is logged and reported as AutoReviewSkipped so the edit can
// still be saved.
func (m *Machine) AutoReview(e *models.Entity, actor *models.User, note string) AutoReviewResult {
	if e.Status != models.StatusPublished {
		return AutoReviewNotApplicable
	}
	if _, err := m.Apply(e, MoveToReview, actor, note); err != nil {
		attrs := []any{"entity", e.ID, "kind", e.Kind, "error", err}
		if actor != nil {
			attrs = append(attrs, "user", actor.ID)
		}
		slog.Warn("auto-review skipped, published content edited without re-review", attrs...)
		return AutoReviewSkipped
	}
	return AutoReviewTransitioned
}

func setNote(e *models.Entity, note string) {
	if note != "" {
		e.ReviewNote = note
	}
}

func actorID(u *models.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
