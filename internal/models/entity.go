// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ContentKind distinguishes the content types that share the editorial
// workflow. All kinds live in the unified entities table.
type ContentKind string

const (
	KindGuide      ContentKind = "guide"
	KindPrompt     ContentKind = "prompt"
	KindUseCase    ContentKind = "usecase"
	KindComparison ContentKind = "comparison"
)

// Kinds lists every workflow-managed content kind in display order.
var Kinds = []ContentKind{KindGuide, KindPrompt, KindUseCase, KindComparison}

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// PathSegment returns the public URL segment for the kind.
func (k ContentKind) PathSegment() string {
	switch k {
	case KindGuide:
		return "guides"
	case KindPrompt:
		return "prompts"
	case KindUseCase:
		return "usecases"
	case KindComparison:
		return "compare"
	}
	return string(k)
}

// Status is the editorial state of an entity. It applies to all of the
// entity's languages at once.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusRework    Status = "rework"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Statuses lists every workflow state.
var Statuses = []Status{StatusDraft, StatusReview, StatusRework, StatusPublished, StatusArchived}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// BodyFormat tells renderers whether HTML-bearing fields hold raw HTML or
// Markdown source.
type BodyFormat string

const (
	BodyFormatHTML     BodyFormat = "html"
	BodyFormatMarkdown BodyFormat = "markdown"
)

// Translated field names. These double as live snapshot keys.
const (
	FieldSlug       = "slug"
	FieldPublicSlug = "public_slug"
	FieldTitle      = "title"
	FieldIntro      = "intro"
	FieldBody       = "body"
	FieldOutro      = "outro"
	FieldPersona    = "persona"
	FieldTeaser     = "teaser"
)

// snapshotFields maps each kind to the fields copied into the live snapshot
// on publish.
var snapshotFields = map[ContentKind][]string{
	KindGuide:      {FieldSlug, FieldPublicSlug, FieldTitle, FieldIntro, FieldBody},
	KindPrompt:     {FieldSlug, FieldPublicSlug, FieldTitle, FieldIntro, FieldBody, FieldOutro},
	KindUseCase:    {FieldSlug, FieldPublicSlug, FieldTitle, FieldIntro, FieldBody, FieldOutro},
	KindComparison: {FieldSlug, FieldPublicSlug, FieldTitle},
}

// SnapshotFields returns the live snapshot field set for a kind. The
// returned slice is a copy.
func SnapshotFields(k ContentKind) []string {
	return slices.Clone(snapshotFields[k])
}

// HTMLFields are the translated fields that carry rich text.
var HTMLFields = []string{FieldIntro, FieldBody, FieldOutro, FieldTeaser}

// IsHTMLField reports whether the named field carries rich text.
func IsHTMLField(name string) bool {
	return slices.Contains(HTMLFields, name)
}

// Translation holds the draft values of an entity in one language.
type Translation struct {
	Language   string `json:"language"`
	Title      string `json:"title"`
	Intro      string `json:"intro"`
	Body       string `json:"body"`
	Outro      string `json:"outro"`
	Slug       string `json:"slug"`
	PublicSlug string `json:"public_slug"`
	Persona    string `json:"persona"`
}

// Field returns the draft value of the named field. Unknown names yield "".
func (t *Translation) Field(name string) string {
	if t == nil {
		return ""
	}
	switch name {
	case FieldTitle:
		return t.Title
	case FieldIntro:
		return t.Intro
	case FieldBody:
		return t.Body
	case FieldOutro:
		return t.Outro
	case FieldSlug:
		return t.Slug
	case FieldPublicSlug:
		return t.PublicSlug
	case FieldPersona:
		return t.Persona
	}
	return ""
}

// SetField assigns the named field. It returns false for unknown names.
func (t *Translation) SetField(name, value string) bool {
	switch name {
	case FieldTitle:
		t.Title = value
	case FieldIntro:
		t.Intro = value
	case FieldBody:
		t.Body = value
	case FieldOutro:
		t.Outro = value
	case FieldSlug:
		t.Slug = value
	case FieldPublicSlug:
		t.PublicSlug = value
	case FieldPersona:
		t.Persona = value
	default:
		return false
	}
	return true
}

// Entity is one workflow-managed content item (guide, prompt, use case or
// comparison) together with its translations and live snapshot.
type Entity struct {
	ID         uuid.UUID   `json:"id"`
	Kind       ContentKind `json:"kind"`
	Status     Status      `json:"status"`
	BodyFormat BodyFormat  `json:"body_format"`

	AuthorID   *uuid.UUID `json:"author_id,omitempty"`
	ReviewerID *uuid.UUID `json:"reviewed_by,omitempty"`

	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	SubmittedForReviewAt *time.Time `json:"submitted_for_review_at,omitempty"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote           string     `json:"review_note"`

	IsPublished             bool       `json:"is_published"`
	PublishedAt             *time.Time `json:"published_at,omitempty"`
	LastPublishedRevisionID *int64     `json:"last_published_revision_id,omitempty"`

	Live         LiveSnapshot            `json:"live_i18n"`
	Translations map[string]*Translation `json:"translations"`

	// Comparison data.
	ToolIDs        []uuid.UUID        `json:"tool_ids,omitempty"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
	WinnerID       *uuid.UUID         `json:"winner_id,omitempty"`

	// Sections is only populated for guides.
	Sections []*Section `json:"sections,omitempty"`
}

// NewEntity returns a draft entity of the given kind owned by author.
func NewEntity(kind ContentKind, author *uuid.UUID) *Entity {
	now := time.Now()
	return &Entity{
		ID:           uuid.New(),
		Kind:         kind,
		Status:       StatusDraft,
		BodyFormat:   BodyFormatHTML,
		AuthorID:     author,
		CreatedAt:    now,
		UpdatedAt:    now,
		Live:         LiveSnapshot{},
		Translations: map[string]*Translation{},
	}
}

// Translation returns the draft translation for lang, or nil.
func (e *Entity) Translation(lang string) *Translation {
	return e.Translations[lang]
}

// EnsureTranslation returns the translation for lang, creating it if absent.
func (e *Entity) EnsureTranslation(lang string) *Translation {
	if e.Translations == nil {
		e.Translations = map[string]*Translation{}
	}
	t, ok := e.Translations[lang]
	if !ok {
		t = &Translation{Language: lang}
		e.Translations[lang] = t
	}
	return t
}

// Languages returns the codes of all draft translations, sorted.
func (e *Entity) Languages() []string {
	langs := make([]string, 0, len(e.Translations))
	for lang := range e.Translations {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// DraftValue returns the draft value of field in lang.
func (e *Entity) DraftValue(field, lang string) string {
	return e.Translations[lang].Field(field)
}

// LiveValue returns the snapshotted value of field in lang, or "".
func (e *Entity) LiveValue(field, lang string) string {
	v, _ := e.Live.Get(lang, field)
	return v
}

// IsAuthoredBy reports whether userID owns the entity.
func (e *Entity) IsAuthoredBy(userID uuid.UUID) bool {
	return e.AuthorID != nil && *e.AuthorID == userID
}

// HasLiveSnapshot reports whether the entity was published before, either
// through a recorded live revision or a non-empty snapshot.
func (e *Entity) HasLiveSnapshot() bool {
	return e.LastPublishedRevisionID != nil || len(e.Live) > 0
}

// VisibleOnSite reports whether the entity may appear on public pages:
// published items, and items back in review that already went live once.
func (e *Entity) VisibleOnSite() bool {
	switch e.Status {
	case StatusPublished:
		return true
	case StatusReview:
		return e.HasLiveSnapshot()
	}
	return false
}

// Validate checks entity-level invariants that must hold on every save.
func (e *Entity) Validate() error {
	if !e.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: "unknown content kind"}
	}
	for _, lang := range e.Languages() {
		t := e.Translations[lang]
		if t.Title == "" {
			return &ValidationError{Field: FieldTitle, Language: lang, Message: "title is required"}
		}
		if t.Slug == "" {
			return &ValidationError{Field: FieldSlug, Language: lang, Message: "slug is required"}
		}
	}
	if e.Kind == KindComparison && len(e.ScoreBreakdown) > 0 && len(e.ToolIDs) == 0 {
		return &ValidationError{Field: "tools", Message: "at least one tool is required if a score breakdown is provided"}
	}
	for _, s := range e.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
