// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of the Mentoro JSON API.
// Handlers are grouped by concern (auth, editorial, users, public) and
// receive their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mentorocms/internal/editorial"
	"mentorocms/internal/models"
	"mentorocms/internal/workflow"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every error reply. Kind is the machine
// readable error category when one is known.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
	Lang  string `json:"language,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeMessage replies with a plain error message.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an error category to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case workflow.KindInvalidTransition, workflow.KindSnapshotInconsistency:
		return http.StatusConflict
	case workflow.KindForbidden:
		return http.StatusForbidden
	case workflow.KindValidation:
		return http.StatusUnprocessableEntity
	case editorial.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError replies with the status for err's category. Internal errors
// are logged and their message is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := workflow.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal server error", Kind: workflow.KindInternal})
		return
	}

	resp := errorResponse{Error: err.Error(), Kind: kind}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		resp.Field, resp.Lang = ve.Field, ve.Language
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// uuidParam parses the named chi URL parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// kindParam reads the {kind} URL parameter.
func kindParam(r *http.Request) (models.ContentKind, bool) {
	k := models.ContentKind(chi.URLParam(r, "kind"))
	return k, k.Valid()
}

// kindFromSegment maps a public URL segment ("guides") to its kind.
func kindFromSegment(seg string) (models.ContentKind, bool) {
	for _, k := range models.Kinds {
		if k.PathSegment() == seg {
			return k, true
		}
	}
	return "", false
}
