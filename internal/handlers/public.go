// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mentorocms/internal/cache"
	"mentorocms/internal/editorial"
	"mentorocms/internal/live"
	"mentorocms/internal/markdown"
	"mentorocms/internal/models"
)

// Public serves the read-only site API. Everything it returns is built
// from display values, so published content keeps showing its live text
// while a new draft waits for review. Responses are cached in Valkey.
type Public struct {
	svc       *editorial.Service
	pageCache *cache.PageCache
}

// NewPublic creates the public handler group. pageCache may be nil.
func NewPublic(svc *editorial.Service, pageCache *cache.PageCache) *Public {
	return &Public{svc: svc, pageCache: pageCache}
}

// Summary is an entity as it appears in a listing.
type Summary struct {
	ID    uuid.UUID          `json:"id"`
	Kind  models.ContentKind `json:"kind"`
	Title string             `json:"title"`
	Intro string             `json:"intro,omitempty"`
	URL   string             `json:"url"`
}

// Page is the full public view of an entity in one language.
type Page struct {
	ID       uuid.UUID          `json:"id"`
	Kind     models.ContentKind `json:"kind"`
	Language string             `json:"language"`
	URL      string             `json:"url"`
	Fields   map[string]string  `json:"fields"`
	Sections []PageSection      `json:"sections,omitempty"`
}

// PageSection is a published guide section.
type PageSection struct {
	Title string     `json:"title"`
	Body  string     `json:"body"`
	Items []PageItem `json:"items,omitempty"`
}

// PageItem is a published guide item.
type PageItem struct {
	Kind     models.ItemKind `json:"kind"`
	Title    string          `json:"title"`
	Teaser   string          `json:"teaser,omitempty"`
	TargetID *uuid.UUID      `json:"target_id,omitempty"`
	URL      string          `json:"url,omitempty"`
}

// route resolves {lang} and {segment}. It replies 404 for languages the
// site does not serve and unknown segments.
func (p *Public) route(w http.ResponseWriter, r *http.Request) (string, models.ContentKind, bool) {
	lang := chi.URLParam(r, "lang")
	if !slices.Contains(p.svc.Languages(), lang) {
		writeMessage(w, http.StatusNotFound, "unknown language")
		return "", "", false
	}
	kind, ok := kindFromSegment(chi.URLParam(r, "segment"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown content type")
		return "", "", false
	}
	return lang, kind, true
}

// List returns the visible entities of a kind in a language.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	lang, kind, ok := p.route(w, r)
	if !ok {
		return
	}
	key := cache.ListKey(kind, lang)
	if p.serveCached(w, r, key) {
		return
	}

	list, err := p.svc.Visible(r.Context(), kind, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]Summary, 0, len(list))
	for _, e := range list {
		out = append(out, summarize(e, lang))
	}
	p.store(w, r, cache.ListOwner(kind), key, map[string]any{"items": out})
}

// Detail returns one visible entity by its public slug.
func (p *Public) Detail(w http.ResponseWriter, r *http.Request) {
	lang, kind, ok := p.route(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")
	key := cache.EntityKey(kind, lang, slug)
	if p.serveCached(w, r, key) {
		return
	}

	e, err := p.svc.VisibleBySlug(r.Context(), kind, lang, slug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if e == nil {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	p.store(w, r, cache.EntityOwner(e.ID), key, render(e, lang))
}

func summarize(e *models.Entity, lang string) Summary {
	return Summary{
		ID:    e.ID,
		Kind:  e.Kind,
		Title: live.DisplayValue(e, models.FieldTitle, lang),
		Intro: live.DisplayValue(e, models.FieldIntro, lang),
		URL:   live.AbsoluteURL(e, lang),
	}
}

// render builds the page of e in lang. Markdown bodies are converted to
// HTML. Sections and items that were never published are left out.
func render(e *models.Entity, lang string) Page {
	md := e.BodyFormat == models.BodyFormatMarkdown
	page := Page{
		ID:       e.ID,
		Kind:     e.Kind,
		Language: lang,
		URL:      live.AbsoluteURL(e, lang),
		Fields:   map[string]string{},
	}
	for _, f := range models.SnapshotFields(e.Kind) {
		if f == models.FieldSlug || f == models.FieldPublicSlug {
			continue
		}
		v := live.DisplayValue(e, f, lang)
		if models.IsHTMLField(f) {
			v = markdown.Field(v, md)
		}
		page.Fields[f] = v
	}

	for _, s := range e.Sections {
		if len(s.Live) == 0 {
			continue
		}
		ps := PageSection{
			Title: live.DisplayValue(s, models.FieldTitle, lang),
			Body:  markdown.Field(live.DisplayValue(s, models.FieldBody, lang), md),
		}
		for _, it := range s.Items {
			if len(it.Live) == 0 {
				continue
			}
			ps.Items = append(ps.Items, PageItem{
				Kind:     it.Kind,
				Title:    live.DisplayValue(it, models.FieldTitle, lang),
				Teaser:   live.DisplayValue(it, models.FieldTeaser, lang),
				TargetID: it.TargetID,
				URL:      it.URL,
			})
		}
		page.Sections = append(page.Sections, ps)
	}
	return page
}

func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if p.pageCache == nil {
		return false
	}
	body, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "HIT")
	w.Write(body)
	return true
}

// store encodes v, caches it under key for owner and writes it.
func (p *Public) store(w http.ResponseWriter, r *http.Request, owner, key string, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode public page failed", "error", err, "key", key)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p.pageCache != nil {
		p.pageCache.Set(r.Context(), owner, key, buf.Bytes())
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.Write(buf.Bytes())
}
