// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workflow

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mentorocms/internal/authz"
	"mentorocms/internal/live"
	"mentorocms/internal/models"
)

// Sentinels for errors.Is checks.
var (
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrForbidden             = errors.New("forbidden")
	ErrSnapshotInconsistency = live.ErrSnapshotInconsistency
)

// SnapshotInconsistencyError is re-exported so callers need only this
// package to classify transition failures.
type SnapshotInconsistencyError = live.SnapshotInconsistencyError

// Error kinds returned by Kind methods and KindOf.
const (
	KindInvalidTransition     = "invalid_transition"
	KindForbidden             = "forbidden"
	KindSnapshotInconsistency = "snapshot_inconsistency"
	KindValidation            = "validation"
	KindInternal              = "internal"
)

// InvalidTransitionError reports a transition that is unknown or not
// allowed from the entity's current status.
type InvalidTransitionError struct {
	Transition Transition
	Status     models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from status %s", e.Transition, e.Status)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func (e *InvalidTransitionError) Kind() string { return KindInvalidTransition }

// ForbiddenError reports a transition the acting user may not perform.
type ForbiddenError struct {
	Transition Transition
	Permission authz.Permission
	UserID     *uuid.UUID
}

func (e *ForbiddenError) Error() string {
	who := "anonymous"
	if e.UserID != nil {
		who = e.UserID.String()
	}
	return fmt.Sprintf("%s may not %s: missing %s", who, e.Transition, e.Permission)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

func (e *ForbiddenError) Kind() string { return KindForbidden }

// KindOf classifies err by walking its chain for a Kind method.
// Unclassified errors are internal.
func KindOf(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}
