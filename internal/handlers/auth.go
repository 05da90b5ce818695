// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"mentorocms/internal/middleware"
	"mentorocms/internal/models"
	"mentorocms/internal/session"
	"mentorocms/internal/store"
)

// totpIssuer names the site in authenticator apps.
const totpIssuer = "Mentoro"

// Next steps returned by Login.
const (
	next2FASetup  = "2fa_setup"
	next2FAVerify = "2fa_verify"
)

// Auth groups the authentication handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Next string `json:"next"`
}

// Login checks credentials and starts a session. The session is not
// usable for the admin API until two-factor verification completes.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.userStore.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	next := next2FAVerify
	if user.Needs2FASetup() {
		next = next2FASetup
	}
	writeJSON(w, http.StatusOK, loginResponse{Next: next})
}

type setupResponse struct {
	QRCode string `json:"qr_code"` // base64 PNG
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// TwoFASetup generates a TOTP secret for a user who has not enrolled yet
// and returns it with a QR code.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	if user.TOTPEnabled {
		writeMessage(w, http.StatusConflict, "two-factor authentication is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.userStore.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		writeError(w, r, err)
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, setupResponse{
		QRCode: base64.StdEncoding.EncodeToString(png),
		Secret: key.Secret(),
		URL:    key.URL(),
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify checks a TOTP code. The first valid code enables 2FA for
// the user; every valid code completes the session.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	if user.TOTPSecret == nil {
		writeJSON(w, http.StatusConflict, loginResponse{Next: next2FASetup})
		return
	}

	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		slog.Warn("invalid 2fa code", "user", user.ID)
		writeMessage(w, http.StatusUnauthorized, "invalid code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(r.Context(), user.ID); err != nil {
			writeError(w, r, err)
			return
		}
		slog.Info("2fa enabled", "user", user.ID)
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token"`
}

// Me returns the authenticated user and the CSRF token the client must
// echo on state-changing requests.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, meResponse{
		User:      middleware.ActorFromCtx(r.Context()),
		CSRFToken: middleware.CSRFTokenFromCtx(r.Context()),
	})
}
