package workflow

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"mentorocms/internal/authz"
	"mentorocms/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMachine() *Machine {
	m := NewMachine(authz.NewPolicy(nil))
	m.SetClock(func() time.Time { return fixedNow })
	return m
}

func user(role models.Role) *models.User {
	return &models.User{ID: uuid.New(), Role: role}
}

func promptBy(author *models.User, status models.Status) *models.Entity {
	e := models.NewEntity(models.KindPrompt, &author.ID)
	e.Status = status
	t := e.EnsureTranslation("en")
	t.Title = "T1"
	t.Slug = "t1"
	t.PublicSlug = "t1"
	t.Intro = "Intro"
	t.Body = "<p>Body</p>"
	return e
}

func snapshotOf(e *models.Entity) models.Entity {
	c := *e
	c.Live = e.Live.Clone()
	return c
}

// Every transition that is not valid from the current status fails with
// InvalidTransition and mutates nothing.
func TestInvalidTransitionsDoNotMutate(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	editor := user(models.RoleEditor)

	for _, status := range models.Statuses {
		for _, tr := range Transitions {
			if tr.ValidFrom(status) {
				continue
			}
			t.Run(string(status)+"/"+string(tr), func(t *testing.T) {
				e := promptBy(author, status)
				e.Live = models.LiveSnapshot{"en": {"title": "old"}}
				before := snapshotOf(e)

				_, err := m.Apply(e, tr, editor, "note")
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("err = %v, want ErrInvalidTransition", err)
				}
				var ite *InvalidTransitionError
				if !errors.As(err, &ite) || ite.Transition != tr || ite.Status != status {
					t.Errorf("error details = %+v", ite)
				}
				if !reflect.DeepEqual(before, *e) {
					t.Errorf("entity mutated:\nbefore %+v\nafter  %+v", before, *e)
				}
			})
		}
	}
}

func TestUnknownTransition(t *testing.T) {
	m := newMachine()
	a := user(models.RoleAuthor)
	_, err := m.Apply(promptBy(a, models.StatusDraft), Transition("delete"), a, "")
	if KindOf(err) != KindInvalidTransition {
		t.Errorf("KindOf = %q, want %q", KindOf(err), KindInvalidTransition)
	}
	if _, ok := ParseTransition("delete"); ok {
		t.Error("ParseTransition accepted unknown name")
	}
	if tr, ok := ParseTransition("publish"); !ok || tr != Publish {
		t.Errorf("ParseTransition(publish) = %v, %v", tr, ok)
	}
}

func TestSelfPublishForbidden(t *testing.T) {
	m := newMachine()

	// An editor who is also the author.
	editorAuthor := user(models.RoleEditor)
	e := promptBy(editorAuthor, models.StatusReview)
	before := snapshotOf(e)

	_, err := m.Apply(e, Publish, editorAuthor, "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	var fe *ForbiddenError
	if !errors.As(err, &fe) || fe.Permission != authz.PermPublish || fe.UserID == nil || *fe.UserID != editorAuthor.ID {
		t.Errorf("error details = %+v", fe)
	}
	if KindOf(err) != KindForbidden {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if !reflect.DeepEqual(before, *e) {
		t.Error("forbidden publish mutated the entity")
	}

	other := user(models.RoleEditor)
	if _, err := m.Apply(e, Publish, other, ""); err != nil {
		t.Fatalf("publish by other editor: %v", err)
	}
	if e.Status != models.StatusPublished {
		t.Errorf("status = %s", e.Status)
	}
}

func TestAnonymousForbidden(t *testing.T) {
	m := newMachine()
	e := promptBy(user(models.RoleAuthor), models.StatusDraft)
	_, err := m.Apply(e, SubmitForReview, nil, "")
	var fe *ForbiddenError
	if !errors.As(err, &fe) || fe.UserID != nil {
		t.Fatalf("err = %v, want ForbiddenError without user", err)
	}
	if fe.Error() == "" {
		t.Error("empty message")
	}
}

func TestPublishSetsAuditAndSnapshot(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	editor := user(models.RoleEditor)
	e := promptBy(author, models.StatusReview)
	de := e.EnsureTranslation("de")
	de.Title = "T1 de"
	de.Slug = "t1-de"

	out, err := m.Apply(e, Publish, editor, "looks good")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.From != models.StatusReview || out.To != models.StatusPublished {
		t.Errorf("outcome = %+v", out)
	}
	if !e.IsPublished || e.PublishedAt == nil || !e.PublishedAt.Equal(fixedNow) {
		t.Errorf("publish flags not set: %v %v", e.IsPublished, e.PublishedAt)
	}
	if e.ReviewerID == nil || *e.ReviewerID != editor.ID {
		t.Error("reviewer not recorded")
	}
	if e.ReviewNote != "looks good" {
		t.Errorf("review note = %q", e.ReviewNote)
	}

	fields := models.SnapshotFields(models.KindPrompt)
	for _, lang := range []string{"en", "de"} {
		if len(e.Live[lang]) != len(fields) {
			t.Errorf("%s: %d fields, want %d", lang, len(e.Live[lang]), len(fields))
		}
		for _, f := range fields {
			if got, _ := e.Live.Get(lang, f); got != e.DraftValue(f, lang) {
				t.Errorf("%s.%s = %q, want %q", lang, f, got, e.DraftValue(f, lang))
			}
		}
	}
	// Prompts publish without an outro.
	if len(out.EmptyFields["en"]) != 1 || out.EmptyFields["en"][0] != models.FieldOutro {
		t.Errorf("EmptyFields = %v", out.EmptyFields)
	}
}

func TestFirstPublishReportsMirroredSlugAsFilled(t *testing.T) {
	m := newMachine()
	e := promptBy(user(models.RoleAuthor), models.StatusReview)
	e.Translations["en"].PublicSlug = ""

	out, err := m.Apply(e, Publish, user(models.RoleEditor), "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, _ := e.Live.Get("en", models.FieldPublicSlug); got != "t1" {
		t.Fatalf("live public_slug = %q, want t1", got)
	}
	if got := out.EmptyFields["en"]; len(got) != 1 || got[0] != models.FieldOutro {
		t.Errorf("EmptyFields[en] = %v, want only outro", got)
	}
}

func TestRepublishKeepsFirstPublishedAt(t *testing.T) {
	m := newMachine()
	editor := user(models.RoleEditor)
	e := promptBy(user(models.RoleAuthor), models.StatusReview)
	first := fixedNow.Add(-48 * time.Hour)
	e.PublishedAt = &first

	if _, err := m.Apply(e, Publish, editor, ""); err != nil {
		t.Fatal(err)
	}
	if !e.PublishedAt.Equal(first) {
		t.Errorf("PublishedAt = %v, want %v", e.PublishedAt, first)
	}
}

func TestPublishWithoutTranslations(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	e := models.NewEntity(models.KindGuide, &author.ID)
	e.Status = models.StatusReview
	before := snapshotOf(e)

	_, err := m.Apply(e, Publish, user(models.RoleAdmin), "")
	if !errors.Is(err, ErrSnapshotInconsistency) {
		t.Fatalf("err = %v", err)
	}
	if KindOf(err) != KindSnapshotInconsistency {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if !reflect.DeepEqual(before, *e) {
		t.Error("failed publish mutated the entity")
	}
}

func TestRequestRework(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	editor := user(models.RoleEditor)
	e := promptBy(author, models.StatusReview)

	if _, err := m.Apply(e, RequestRework, author, "mine"); !errors.Is(err, ErrForbidden) {
		t.Errorf("author rework err = %v, want forbidden", err)
	}
	if _, err := m.Apply(e, RequestRework, editor, "tighten the intro"); err != nil {
		t.Fatal(err)
	}
	if e.Status != models.StatusRework || e.ReviewNote != "tighten the intro" || e.ReviewedAt == nil {
		t.Errorf("entity = %+v", e)
	}
	if len(e.Live) != 0 {
		t.Error("rework must not touch the live snapshot")
	}

	if _, err := m.Apply(e, SubmitForReview, author, ""); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if e.Status != models.StatusReview {
		t.Errorf("status = %s", e.Status)
	}
}

func TestArchiveFromAnyAndRestoreToDraft(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)

	for _, status := range []models.Status{models.StatusDraft, models.StatusReview, models.StatusRework, models.StatusPublished} {
		t.Run(string(status), func(t *testing.T) {
			e := promptBy(author, status)
			e.IsPublished = status == models.StatusPublished

			if _, err := m.Apply(e, Archive, author, "retired"); err != nil {
				t.Fatalf("archive: %v", err)
			}
			if e.Status != models.StatusArchived || e.IsPublished {
				t.Errorf("after archive: status %s published %v", e.Status, e.IsPublished)
			}
			if e.ReviewNote != "retired" {
				t.Errorf("note = %q", e.ReviewNote)
			}

			if _, err := m.Apply(e, Restore, author, ""); err != nil {
				t.Fatalf("restore: %v", err)
			}
			if e.Status != models.StatusDraft {
				t.Errorf("restored to %s, want draft", e.Status)
			}
			if e.ReviewNote != "retired" {
				t.Error("empty note must not clear the previous one")
			}
		})
	}
}

func TestAutoReview(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	stranger := user(models.RoleAuthor)

	e := promptBy(author, models.StatusPublished)
	if got := m.AutoReview(e, stranger, ""); got != AutoReviewSkipped {
		t.Errorf("stranger: %s, want skipped", got)
	}
	if e.Status != models.StatusPublished {
		t.Errorf("status changed to %s", e.Status)
	}

	if got := m.AutoReview(e, author, "edited"); got != AutoReviewTransitioned {
		t.Errorf("author: %s, want transitioned", got)
	}
	if e.Status != models.StatusReview || e.ReviewNote != "edited" {
		t.Errorf("entity = %s %q", e.Status, e.ReviewNote)
	}

	if got := m.AutoReview(e, author, ""); got != AutoReviewNotApplicable {
		t.Errorf("review: %s, want not_applicable", got)
	}
}

func TestAvailable(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	editor := user(models.RoleEditor)

	e := promptBy(author, models.StatusReview)
	got := m.Available(e, editor)
	want := []Transition{RequestRework, Publish, Archive}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("editor on review: %v, want %v", got, want)
	}
	got = m.Available(e, author)
	if !reflect.DeepEqual(got, []Transition{Archive}) {
		t.Errorf("author on review: %v", got)
	}
}

func TestGuidePublishMirrorsAndCascades(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	g := models.NewEntity(models.KindGuide, &author.ID)
	g.Status = models.StatusReview
	tr := g.EnsureTranslation("en")
	tr.Title = "Guide"
	tr.Slug = "guide"
	tr.PublicSlug = "old-guide"

	g.Sections = []*models.Section{{
		ID: uuid.New(),
		Translations: map[string]*models.SectionTranslation{
			"en": {Language: "en", Title: "One", Body: "First"},
		},
	}}

	if _, err := m.Apply(g, Publish, user(models.RoleEditor), ""); err != nil {
		t.Fatal(err)
	}
	if tr.PublicSlug != "guide" {
		t.Errorf("public_slug = %q, want guide", tr.PublicSlug)
	}
	if v, _ := g.Live.Get("en", models.FieldPublicSlug); v != "guide" {
		t.Errorf("live public_slug = %q, want guide", v)
	}
	if v, _ := g.Sections[0].Live.Get("en", models.FieldTitle); v != "One" {
		t.Errorf("section live title = %q", v)
	}
}

func TestCustomHook(t *testing.T) {
	m := newMachine()
	var calls int
	m.Register(models.KindComparison, PublishHookFunc(func(e *models.Entity) {
		if e.Status == models.StatusPublished && len(e.Live) > 0 {
			calls++
		}
	}))

	c := models.NewEntity(models.KindComparison, nil)
	c.Status = models.StatusReview
	tr := c.EnsureTranslation("en")
	tr.Title = "A vs B"
	tr.Slug = "a-vs-b"

	if _, err := m.Apply(c, Publish, user(models.RoleAdmin), ""); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("hook ran %d times after the snapshot, want 1", calls)
	}
}

// Draft, submit, publish, edit, auto-review: the live title stays put.
func TestEditorialRoundTrip(t *testing.T) {
	m := newMachine()
	author := user(models.RoleAuthor)
	editor := user(models.RoleEditor)

	e := models.NewEntity(models.KindPrompt, &author.ID)
	en := e.EnsureTranslation("en")
	en.Title = "T1"
	en.Slug = "t1"

	if _, err := m.Apply(e, SubmitForReview, author, ""); err != nil {
		t.Fatal(err)
	}
	if e.Status != models.StatusReview || e.SubmittedForReviewAt == nil {
		t.Fatalf("after submit: %s %v", e.Status, e.SubmittedForReviewAt)
	}
	if len(e.Live) != 0 {
		t.Fatalf("live = %v, want empty", e.Live)
	}

	if _, err := m.Apply(e, Publish, editor, ""); err != nil {
		t.Fatal(err)
	}
	if v, _ := e.Live.Get("en", models.FieldTitle); v != "T1" {
		t.Fatalf("live title = %q", v)
	}

	if got := m.AutoReview(e, author, ""); got != AutoReviewTransitioned {
		t.Fatalf("auto-review = %s", got)
	}
	en.Title = "T2"
	if e.Status != models.StatusReview {
		t.Errorf("status = %s, want review", e.Status)
	}
	if v, _ := e.Live.Get("en", models.FieldTitle); v != "T1" {
		t.Errorf("live title = %q, want T1 until next publish", v)
	}
	if !e.VisibleOnSite() {
		t.Error("previously published entity in review must stay visible")
	}
}
