package live

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"mentorocms/internal/models"
)

func guideWith(langs map[string]string) *models.Entity {
	e := models.NewEntity(models.KindGuide, nil)
	for lang, title := range langs {
		t := e.EnsureTranslation(lang)
		t.Title = title
		t.Slug = "slug-" + lang
	}
	return e
}

func TestBuildCapturesExactFieldSet(t *testing.T) {
	kinds := []models.ContentKind{models.KindGuide, models.KindPrompt, models.KindUseCase, models.KindComparison}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			e := models.NewEntity(kind, nil)
			tr := e.EnsureTranslation("en")
			tr.Title = "Title"
			tr.Slug = "title"
			tr.Intro = "<p>Intro</p>"
			tr.Body = "Body"
			tr.Persona = "not snapshotted"

			snap, _, err := Build(e)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			fields := models.SnapshotFields(kind)
			if len(snap["en"]) != len(fields) {
				t.Fatalf("entry has %d fields, want %d: %v", len(snap["en"]), len(fields), snap["en"])
			}
			for _, f := range fields {
				got, ok := snap.Get("en", f)
				if !ok {
					t.Errorf("field %s missing", f)
				}
				if got != e.DraftValue(f, "en") {
					t.Errorf("field %s = %q, want %q", f, got, e.DraftValue(f, "en"))
				}
			}
			if _, ok := snap.Get("en", models.FieldPersona); ok {
				t.Error("persona must not be snapshotted")
			}
		})
	}
}

func TestBuildReportsEmptyFields(t *testing.T) {
	e := models.NewEntity(models.KindComparison, nil)
	tr := e.EnsureTranslation("de")
	tr.Title = "Vergleich"
	tr.Slug = "vergleich"

	snap, report, err := Build(e)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v, ok := snap.Get("de", models.FieldPublicSlug); !ok || v != "" {
		t.Errorf("public_slug = %q (present %v), want empty and present", v, ok)
	}
	if !report.HasEmpty() {
		t.Fatal("expected empty fields in report")
	}
	if got := report.EmptyFields["de"]; len(got) != 1 || got[0] != models.FieldPublicSlug {
		t.Errorf("EmptyFields[de] = %v", got)
	}
}

func TestAuditFollowsLiveSnapshot(t *testing.T) {
	e := models.NewEntity(models.KindComparison, nil)
	tr := e.EnsureTranslation("de")
	tr.Title = "Vergleich"
	tr.Slug = "vergleich"

	snap, _, err := Build(e)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e.Live = snap
	if got := Audit(e).EmptyFields["de"]; len(got) != 1 || got[0] != models.FieldPublicSlug {
		t.Errorf("before mirroring EmptyFields[de] = %v", got)
	}

	MirrorPublicSlugs(e)
	if r := Audit(e); r.HasEmpty() {
		t.Errorf("after mirroring EmptyFields = %v, want none", r.EmptyFields)
	}
}

func TestBuildReplacesRatherThanMerges(t *testing.T) {
	e := guideWith(map[string]string{"en": "New"})
	e.Live = models.LiveSnapshot{
		"en": {"title": "Old", "stale": "x"},
		"fr": {"title": "Gone"},
	}

	snap, _, err := Build(e)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := snap["fr"]; ok {
		t.Error("languages without a translation must not survive a rebuild")
	}
	if _, ok := snap.Get("en", "stale"); ok {
		t.Error("fields outside the snapshot set must be dropped")
	}
	if v, _ := snap.Get("en", "title"); v != "New" {
		t.Errorf("title = %q, want New", v)
	}
}

func TestBuildWithoutTranslations(t *testing.T) {
	e := models.NewEntity(models.KindPrompt, nil)
	_, _, err := Build(e)
	if !errors.Is(err, ErrSnapshotInconsistency) {
		t.Fatalf("err = %v, want ErrSnapshotInconsistency", err)
	}
	var sie *SnapshotInconsistencyError
	if !errors.As(err, &sie) || sie.EntityID != e.ID {
		t.Errorf("expected typed error for entity %s, got %v", e.ID, err)
	}
	if sie.Kind() != "snapshot_inconsistency" {
		t.Errorf("Kind = %q", sie.Kind())
	}
}

func TestDisplayValue(t *testing.T) {
	e := guideWith(map[string]string{"en": "Draft"})
	e.Live = models.LiveSnapshot{"en": {"title": "Live", "intro": ""}}
	e.Translations["en"].Intro = "draft intro"

	tests := []struct {
		field, lang, want string
	}{
		{"title", "en", "Live"},
		{"intro", "en", "draft intro"},
		{"body", "en", ""},
		{"title", "de", ""},
	}
	for _, tt := range tests {
		// Repeated reads are stable.
		for range 2 {
			if got := DisplayValue(e, tt.field, tt.lang); got != tt.want {
				t.Errorf("DisplayValue(%s, %s) = %q, want %q", tt.field, tt.lang, got, tt.want)
			}
		}
	}
}

// A language added after publish falls back to its draft.
func TestDisplayValueLanguageAddedAfterPublish(t *testing.T) {
	e := guideWith(map[string]string{"en": "Hello", "de": "Hallo"})
	snap, _, err := Build(e)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e.Live = snap

	fr := e.EnsureTranslation("fr")
	fr.Title = "Bonjour"
	fr.Slug = "bonjour"

	if got := DisplayValue(e, models.FieldTitle, "fr"); got != "Bonjour" {
		t.Errorf("fr title = %q, want Bonjour", got)
	}
	e.Translations["en"].Title = "Hello again"
	if got := DisplayValue(e, models.FieldTitle, "en"); got != "Hello" {
		t.Errorf("en title = %q, want live value Hello", got)
	}
}

func TestDisplayValueAny(t *testing.T) {
	e := guideWith(map[string]string{"de": "Hallo", "it": "Ciao"})

	if got := DisplayValueAny(e, models.FieldTitle, "en", "it"); got != "Ciao" {
		t.Errorf("with fallback = %q, want Ciao", got)
	}
	if got := DisplayValueAny(e, models.FieldTitle, "en"); got != "Hallo" {
		t.Errorf("sorted fallback = %q, want Hallo", got)
	}
	if got := DisplayValueAny(e, models.FieldBody, "en"); got != "" {
		t.Errorf("missing everywhere = %q, want empty", got)
	}
}

func TestSlugPreference(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *models.Entity)
		lang  string
		want  string
	}{
		{"draft slug", func(e *models.Entity) {}, "en", "slug-en"},
		{"draft public slug", func(e *models.Entity) {
			e.Translations["en"].PublicSlug = "public-en"
		}, "en", "public-en"},
		{"live slug over draft", func(e *models.Entity) {
			e.Translations["en"].PublicSlug = "public-en"
			e.Live = models.LiveSnapshot{"en": {"slug": "live-en", "public_slug": ""}}
		}, "en", "live-en"},
		{"live public slug first", func(e *models.Entity) {
			e.Live = models.LiveSnapshot{"en": {"slug": "live-en", "public_slug": "live-public"}}
		}, "en", "live-public"},
		{"other language fallback", func(e *models.Entity) {}, "fr", "slug-en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := guideWith(map[string]string{"en": "Hello"})
			tt.setup(e)
			if got := Slug(e, tt.lang); got != tt.want {
				t.Errorf("Slug = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	e := models.NewEntity(models.KindComparison, nil)
	if got := AbsoluteURL(e, "en"); got != "#" {
		t.Errorf("no slug: got %q, want #", got)
	}
	tr := e.EnsureTranslation("en")
	tr.Title = "A vs B"
	tr.Slug = "a-vs-b"
	if got := AbsoluteURL(e, "en"); got != "/en/compare/a-vs-b/" {
		t.Errorf("got %q", got)
	}
}

func TestMirrorPublicSlugs(t *testing.T) {
	e := guideWith(map[string]string{"en": "Hello", "de": "Hallo"})
	e.Translations["de"].PublicSlug = "slug-de"
	snap, _, _ := Build(e)
	e.Live = snap

	changed := MirrorPublicSlugs(e)
	if len(changed) != 1 || changed[0] != "en" {
		t.Fatalf("changed = %v, want [en]", changed)
	}
	if e.Translations["en"].PublicSlug != "slug-en" {
		t.Errorf("draft public_slug = %q", e.Translations["en"].PublicSlug)
	}
	if v, _ := e.Live.Get("en", models.FieldPublicSlug); v != "slug-en" {
		t.Errorf("live public_slug = %q, want slug-en", v)
	}

	if again := MirrorPublicSlugs(e); len(again) != 0 {
		t.Errorf("second mirror changed %v, want none", again)
	}
}

func TestMirrorKeepsPublicSlugWhenSlugEmpty(t *testing.T) {
	e := models.NewEntity(models.KindPrompt, nil)
	tr := e.EnsureTranslation("en")
	tr.PublicSlug = "stable"
	MirrorPublicSlugs(e)
	if tr.PublicSlug != "stable" {
		t.Errorf("public_slug = %q, want stable", tr.PublicSlug)
	}
}

func TestCascadeSections(t *testing.T) {
	e := guideWith(map[string]string{"en": "Guide"})
	target := uuid.New()
	sec := &models.Section{
		ID:    uuid.New(),
		Order: 1,
		Translations: map[string]*models.SectionTranslation{
			"en": {Language: "en", Title: "Intro", Body: "<p>Hi</p>"},
		},
		Items: []*models.Item{{
			ID:       uuid.New(),
			Kind:     models.ItemPrompt,
			TargetID: &target,
			Translations: map[string]*models.ItemTranslation{
				"en": {Language: "en", Title: "A prompt"},
			},
		}},
	}
	e.Sections = []*models.Section{sec}

	CascadeSections(e)

	if v, _ := sec.Live.Get("en", models.FieldBody); v != "<p>Hi</p>" {
		t.Errorf("section body = %q", v)
	}
	it := sec.Items[0]
	if v, _ := it.Live.Get("en", models.FieldTitle); v != "A prompt" {
		t.Errorf("item title = %q", v)
	}
	if v, ok := it.Live.Get("en", models.FieldTeaser); !ok || v != "" {
		t.Errorf("item teaser = %q (present %v), want empty and present", v, ok)
	}
}
