// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz decides which editorial permissions a user holds on a
// content entity. Rules are predicates over (user, entity) combined into a
// Policy value that callers inject, so tests can substitute their own.
package authz

import (
	"maps"

	"mentorocms/internal/models"
)

// Permission names an editorial action gated by the policy.
type Permission string

const (
	PermSubmitForReview Permission = "content.submit_for_review"
	PermRequestRework   Permission = "content.request_rework"
	PermPublish         Permission = "content.publish"
	PermArchive         Permission = "content.archive"
	PermRestore         Permission = "content.restore"
)

// DefaultEditorGroups are the group names that grant editor rights when no
// configuration overrides them.
var DefaultEditorGroups = []string{"Editors", "Admins"}

// Predicate tests a user against an entity. A nil user is anonymous.
type Predicate func(u *models.User, e *models.Entity) bool

// Or is satisfied when either predicate is.
func (p Predicate) Or(q Predicate) Predicate {
	return func(u *models.User, e *models.Entity) bool { return p(u, e) || q(u, e) }
}

// And is satisfied when both predicates are.
func (p Predicate) And(q Predicate) Predicate {
	return func(u *models.User, e *models.Entity) bool { return p(u, e) && q(u, e) }
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(u *models.User, e *models.Entity) bool { return !p(u, e) }
}

// IsAuthor is true when the user is authenticated and owns the entity.
func IsAuthor(u *models.User, e *models.Entity) bool {
	return u != nil && e != nil && e.IsAuthoredBy(u.ID)
}

// IsEditor returns a predicate that is true for admins, users with the
// editor role, and members of any of the given groups.
func IsEditor(groups []string) Predicate {
	return func(u *models.User, _ *models.Entity) bool {
		if u == nil {
			return false
		}
		if u.IsAdmin() || u.Role == models.RoleEditor {
			return true
		}
		for _, g := range groups {
			if u.InGroup(g) {
				return true
			}
		}
		return false
	}
}

// Policy maps each permission to the rule that grants it. Permissions
// without a rule are denied.
type Policy struct {
	rules map[Permission]Predicate
}

// NewPolicy builds the standard editorial policy. Editors may never
// approve or publish content they authored themselves.
func NewPolicy(editorGroups []string) *Policy {
	if len(editorGroups) == 0 {
		editorGroups = DefaultEditorGroups
	}
	author := Predicate(IsAuthor)
	editor := IsEditor(editorGroups)

	return &Policy{rules: map[Permission]Predicate{
		PermSubmitForReview: author.Or(editor),
		PermRequestRework:   editor.And(Not(author)),
		PermPublish:         editor.And(Not(author)),
		PermArchive:         author.Or(editor),
		PermRestore:         author.Or(editor),
	}}
}

// With returns a copy of the policy with perm governed by rule.
func (p *Policy) With(perm Permission, rule Predicate) *Policy {
	rules := maps.Clone(p.rules)
	if rules == nil {
		rules = map[Permission]Predicate{}
	}
	rules[perm] = rule
	return &Policy{rules: rules}
}

// Allowed reports whether u holds perm on e.
func (p *Policy) Allowed(perm Permission, u *models.User, e *models.Entity) bool {
	rule, ok := p.rules[perm]
	if !ok {
		return false
	}
	return rule(u, e)
}

// Permissions lists the permissions u holds on e, in a stable order.
// Used by the admin API to gate UI affordances.
func (p *Policy) Permissions(u *models.User, e *models.Entity) []Permission {
	var out []Permission
	for _, perm := range []Permission{PermSubmitForReview, PermRequestRework, PermPublish, PermArchive, PermRestore} {
		if p.Allowed(perm, u, e) {
			out = append(out, perm)
		}
	}
	return out
}
