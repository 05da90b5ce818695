// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mentorocms/internal/middleware"
	"mentorocms/internal/models"
	"mentorocms/internal/store"
)

// Users groups the admin-only user management handlers. Group membership
// decides who counts as an editor.
type Users struct {
	userStore *store.UserStore
}

// NewUsers creates the user management handler group.
func NewUsers(userStore *store.UserStore) *Users {
	return &Users{userStore: userStore}
}

type createUserRequest struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Password    string      `json:"password"`
	Role        models.Role `json:"role"`
	Groups      []string    `json:"groups"`
}

// validateUser returns the first problem with req, or "".
func validateUser(req createUserRequest) string {
	switch {
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return "A valid email is required."
	case req.DisplayName == "":
		return "Display name is required."
	case len(req.Password) < 8:
		return "Password must be at least 8 characters."
	case req.Role != models.RoleAdmin && req.Role != models.RoleEditor && req.Role != models.RoleAuthor:
		return "Invalid role."
	}
	for _, g := range req.Groups {
		if strings.TrimSpace(g) == "" {
			return "Group names must not be blank."
		}
	}
	return ""
}

// List returns all users.
func (u *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := u.userStore.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Create adds a user and its group memberships.
func (u *Users) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if msg := validateUser(req); msg != "" {
		writeMessage(w, http.StatusUnprocessableEntity, msg)
		return
	}

	existing, err := u.userStore.FindByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusConflict, "A user with this email already exists.")
		return
	}

	created, err := u.userStore.Create(r.Context(), req.Email, req.Password, req.DisplayName, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, g := range req.Groups {
		if err := u.userStore.AddToGroup(r.Context(), created.ID, strings.TrimSpace(g)); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if created, err = u.userStore.FindByID(r.Context(), created.ID); err != nil {
		writeError(w, r, err)
		return
	}

	admin := middleware.ActorFromCtx(r.Context())
	slog.Info("user created", "admin", admin.Email, "new_user", created.Email, "role", created.Role)
	writeJSON(w, http.StatusCreated, created)
}

// AddToGroup puts {id} into {group}.
func (u *Users) AddToGroup(w http.ResponseWriter, r *http.Request) {
	u.changeGroup(w, r, true)
}

// RemoveFromGroup takes {id} out of {group}.
func (u *Users) RemoveFromGroup(w http.ResponseWriter, r *http.Request) {
	u.changeGroup(w, r, false)
}

func (u *Users) changeGroup(w http.ResponseWriter, r *http.Request, add bool) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	group := strings.TrimSpace(chi.URLParam(r, "group"))
	if group == "" {
		writeMessage(w, http.StatusBadRequest, "group is required")
		return
	}

	target, err := u.userStore.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if target == nil {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}

	if add {
		err = u.userStore.AddToGroup(r.Context(), id, group)
	} else {
		err = u.userStore.RemoveFromGroup(r.Context(), id, group)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	admin := middleware.ActorFromCtx(r.Context())
	slog.Info("user groups changed", "admin", admin.Email, "user", target.Email, "group", group, "added", add)
	w.WriteHeader(http.StatusNoContent)
}

// ResetTwoFA clears another user's TOTP enrollment so they must set it up
// again on next login. Admins cannot reset their own.
func (u *Users) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	admin := middleware.ActorFromCtx(r.Context())

	targetID, err := uuidParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if targetID == admin.ID {
		writeMessage(w, http.StatusForbidden, "cannot reset your own 2FA")
		return
	}

	if err := u.userStore.ResetTOTP(r.Context(), targetID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("2fa reset by admin", "admin", admin.Email, "target_user", targetID)
	w.WriteHeader(http.StatusNoContent)
}
