// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"log/slog"

	"mentorocms/internal/live"
	"mentorocms/internal/models"
)

// PublishHook runs kind-specific side effects right after the live
// snapshot of a publish has been written, before the caller persists.
type PublishHook interface {
	AfterPublish(e *models.Entity)
}

// PublishHookFunc adapts a function to PublishHook.
type PublishHookFunc func(e *models.Entity)

func (f PublishHookFunc) AfterPublish(e *models.Entity) { f(e) }

// MirrorSlugs copies slug into public_slug where they differ.
type MirrorSlugs struct{}

func (MirrorSlugs) AfterPublish(e *models.Entity) {
	if changed := live.MirrorPublicSlugs(e); len(changed) > 0 {
		slog.Debug("public slug mirrored", "entity", e.ID, "languages", changed)
	}
}

// CascadeGuide snapshots every section and item of a guide.
type CascadeGuide struct{}

func (CascadeGuide) AfterPublish(e *models.Entity) {
	live.CascadeSections(e)
}
