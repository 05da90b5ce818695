// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mentorocms/internal/editorial"
	"mentorocms/internal/middleware"
	"mentorocms/internal/models"
	"mentorocms/internal/review"
	"mentorocms/internal/store"
	"mentorocms/internal/workflow"
)

// RevisionLister lists the recorded revisions of an entity.
type RevisionLister interface {
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*models.Revision, error)
}

// CacheLogReader reads the page cache invalidation log.
type CacheLogReader interface {
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// Editorial groups the admin API handlers of the publishing workflow.
type Editorial struct {
	svc       *editorial.Service
	revisions RevisionLister
	cacheLog  CacheLogReader
}

// NewEditorial creates the editorial handler group. revisions and
// cacheLog may be nil, which disables the endpoints that need them.
func NewEditorial(svc *editorial.Service, revisions RevisionLister, cacheLog CacheLogReader) *Editorial {
	return &Editorial{svc: svc, revisions: revisions, cacheLog: cacheLog}
}

// entityResponse is an entity together with what the caller may do next.
type entityResponse struct {
	Entity      *models.Entity        `json:"entity"`
	Transitions []workflow.Transition `json:"transitions"`
}

type saveResponse struct {
	*editorial.SaveResult
	Transitions []workflow.Transition `json:"transitions"`
}

type transitionRequest struct {
	Note string `json:"note"`
}

type transitionResponse struct {
	Transition  workflow.Transition `json:"transition"`
	From        models.Status       `json:"from"`
	To          models.Status       `json:"to"`
	EmptyFields map[string][]string `json:"empty_fields,omitempty"`
}

type bulkRequest struct {
	IDs  []uuid.UUID `json:"ids"`
	Note string      `json:"note"`
}

type listResponse struct {
	Items []*models.Entity `json:"items"`
}

// kindOrNotFound reads {kind} and replies 404 for unknown kinds.
func kindOrNotFound(w http.ResponseWriter, r *http.Request) (models.ContentKind, bool) {
	kind, ok := kindParam(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown content kind")
	}
	return kind, ok
}

// target reads {kind} and {id}.
func target(w http.ResponseWriter, r *http.Request) (models.ContentKind, uuid.UUID, bool) {
	kind, ok := kindOrNotFound(w, r)
	if !ok {
		return "", uuid.Nil, false
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return "", uuid.Nil, false
	}
	return kind, id, true
}

// optionalKind reads the ?kind= filter. Empty means all kinds.
func optionalKind(w http.ResponseWriter, r *http.Request) (models.ContentKind, bool) {
	k := models.ContentKind(r.URL.Query().Get("kind"))
	if k != "" && !k.Valid() {
		writeMessage(w, http.StatusBadRequest, "unknown content kind")
		return "", false
	}
	return k, true
}

func items(list []*models.Entity) listResponse {
	if list == nil {
		list = []*models.Entity{}
	}
	return listResponse{Items: list}
}

// ReviewQueue lists entities waiting for review.
func (h *Editorial) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	kind, ok := optionalKind(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ReviewQueue(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

// MyDrafts lists the caller's unpublished work.
func (h *Editorial) MyDrafts(w http.ResponseWriter, r *http.Request) {
	kind, ok := optionalKind(w, r)
	if !ok {
		return
	}
	list, err := h.svc.MyDrafts(r.Context(), kind, middleware.ActorFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

// List lists entities of {kind} in the ?status= state (default draft).
func (h *Editorial) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindOrNotFound(w, r)
	if !ok {
		return
	}
	status := models.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusDraft
	}
	list, err := h.svc.ListByStatus(r.Context(), kind, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items(list))
}

// Create stores a new draft of {kind} authored by the caller.
func (h *Editorial) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindOrNotFound(w, r)
	if !ok {
		return
	}
	var d editorial.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateDraft(d); msg != "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg, Kind: workflow.KindValidation})
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	e, err := h.svc.Create(r.Context(), kind, d, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{Entity: e, Transitions: h.svc.Machine().Available(e, actor)})
}

// Get returns one entity and the transitions available to the caller.
func (h *Editorial) Get(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := target(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Get(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor := middleware.ActorFromCtx(r.Context())
	writeJSON(w, http.StatusOK, entityResponse{Entity: e, Transitions: h.svc.Machine().Available(e, actor)})
}

// SaveDraft applies a draft edit. Editing published content sends it back
// to review when the caller may submit it; the response says which.
func (h *Editorial) SaveDraft(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := target(w, r)
	if !ok {
		return
	}
	var d editorial.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateDraft(d); msg != "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg, Kind: workflow.KindValidation})
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	res, err := h.svc.SaveDraft(r.Context(), kind, id, d, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{SaveResult: res, Transitions: h.svc.Machine().Available(res.Entity, actor)})
}

// Diff returns the per-language review comparison.
func (h *Editorial) Diff(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := target(w, r)
	if !ok {
		return
	}
	diff, err := h.svc.Diff(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if diff == nil {
		diff = []review.LanguageComparison{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": diff})
}

// Transition applies {transition} to one entity.
func (h *Editorial) Transition(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := target(w, r)
	if !ok {
		return
	}
	t, ok := workflow.ParseTransition(chi.URLParam(r, "transition"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown transition", Kind: workflow.KindInvalidTransition})
		return
	}
	var req transitionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	out, err := h.svc.Transition(r.Context(), kind, id, t, middleware.ActorFromCtx(r.Context()), req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		Transition:  out.Transition,
		From:        out.From,
		To:          out.To,
		EmptyFields: out.EmptyFields,
	})
}

// Bulk applies {transition} to a list of entities and returns the
// per-entity report. Individual failures do not fail the request.
func (h *Editorial) Bulk(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindOrNotFound(w, r)
	if !ok {
		return
	}
	t, ok := workflow.ParseTransition(chi.URLParam(r, "transition"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown transition", Kind: workflow.KindInvalidTransition})
		return
	}
	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeMessage(w, http.StatusBadRequest, "ids must not be empty")
		return
	}
	if len(req.IDs) > maxBulkIDs {
		writeMessage(w, http.StatusBadRequest, "too many ids (max "+strconv.Itoa(maxBulkIDs)+")")
		return
	}

	report := h.svc.Bulk(r.Context(), kind, req.IDs, t, middleware.ActorFromCtx(r.Context()), req.Note)
	writeJSON(w, http.StatusOK, report)
}

// SaveSection adds a section to a guide, or replaces {sectionID}.
func (h *Editorial) SaveSection(w http.ResponseWriter, r *http.Request) {
	guideID, err := uuidParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var sec models.Section
	if err := decodeJSON(w, r, &sec); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	sec.ID = uuid.Nil
	if chi.URLParam(r, "sectionID") != "" {
		if sec.ID, err = uuidParam(r, "sectionID"); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if msg := validateSection(sec); msg != "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg, Kind: workflow.KindValidation})
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	res, err := h.svc.SaveSection(r.Context(), guideID, sec, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if sec.ID == uuid.Nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, saveResponse{SaveResult: res, Transitions: h.svc.Machine().Available(res.Entity, actor)})
}

// DeleteSection removes {sectionID} from a guide.
func (h *Editorial) DeleteSection(w http.ResponseWriter, r *http.Request) {
	guideID, err := uuidParam(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	sectionID, err := uuidParam(r, "sectionID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := middleware.ActorFromCtx(r.Context())
	res, err := h.svc.DeleteSection(r.Context(), guideID, sectionID, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{SaveResult: res, Transitions: h.svc.Machine().Available(res.Entity, actor)})
}

// Revisions lists an entity's recorded revisions, newest first.
func (h *Editorial) Revisions(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := target(w, r)
	if !ok {
		return
	}
	if h.revisions == nil {
		writeMessage(w, http.StatusNotFound, "revisions are not available")
		return
	}
	if _, err := h.svc.Get(r.Context(), kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	revs, err := h.revisions.ListByEntity(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if revs == nil {
		revs = []*models.Revision{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": revs})
}

// CacheLog returns recent page cache invalidations. ?limit= defaults to 50.
func (h *Editorial) CacheLog(w http.ResponseWriter, r *http.Request) {
	if h.cacheLog == nil {
		writeMessage(w, http.StatusNotFound, "cache log is not available")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeMessage(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	entries, err := h.cacheLog.RecentEntries(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.CacheLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
