package editorial

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"mentorocms/internal/models"
)

// memStore is an in-memory Store. InTx works on a copy of the data that
// replaces the committed state only when fn succeeds, and holds a mutex
// for its whole duration, which serializes transactions like row locks do.
type memStore struct {
	mu        sync.Mutex
	entities  map[uuid.UUID]*models.Entity
	revisions []*models.Revision
	failSave  error
}

func newMemStore() *memStore {
	return &memStore{entities: map[uuid.UUID]*models.Entity{}}
}

func clone(e *models.Entity) *models.Entity {
	b, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	out := &models.Entity{}
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

// get returns a copy of the committed entity, or nil.
func (m *memStore) get(id uuid.UUID) *models.Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.entities[id]; e != nil {
		return clone(e)
	}
	return nil
}

func (m *memStore) revisionCount(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.revisions {
		if r.EntityID == id {
			n++
		}
	}
	return n
}

func (m *memStore) revision(id int64) *models.Revision {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.revisions {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m, entities: make(map[uuid.UUID]*models.Entity, len(m.entities))}
	for id, e := range m.entities {
		tx.entities[id] = clone(e)
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.entities = tx.entities
	m.revisions = append(m.revisions, tx.revisions...)
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Entity, error) {
	return m.get(id), nil
}

func (m *memStore) FindBySlug(ctx context.Context, kind models.ContentKind, lang, slug string) (*models.Entity, error) {
	for _, e := range m.filter(func(e *models.Entity) bool { return e.Kind == kind }) {
		if e.LiveValue(models.FieldSlug, lang) == slug || e.DraftValue(models.FieldSlug, lang) == slug {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListVisible(ctx context.Context, kind models.ContentKind, lang string) ([]*models.Entity, error) {
	return m.filter(func(e *models.Entity) bool {
		return (kind == "" || e.Kind == kind) && e.VisibleOnSite()
	}), nil
}

func (m *memStore) ListByStatus(ctx context.Context, kind models.ContentKind, status models.Status) ([]*models.Entity, error) {
	return m.filter(func(e *models.Entity) bool {
		return (kind == "" || e.Kind == kind) && e.Status == status
	}), nil
}

func (m *memStore) ReviewQueue(ctx context.Context, kind models.ContentKind) ([]*models.Entity, error) {
	return m.ListByStatus(ctx, kind, models.StatusReview)
}

func (m *memStore) ListByAuthor(ctx context.Context, kind models.ContentKind, authorID uuid.UUID) ([]*models.Entity, error) {
	return m.filter(func(e *models.Entity) bool {
		return (kind == "" || e.Kind == kind) && e.IsAuthoredBy(authorID) && e.Status != models.StatusPublished
	}), nil
}

// filter returns copies of matching entities ordered by creation time.
func (m *memStore) filter(keep func(*models.Entity) bool) []*models.Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Entity
	for _, e := range m.entities {
		if keep(e) {
			out = append(out, clone(e))
		}
	}
	slices.SortFunc(out, func(a, b *models.Entity) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

type memTx struct {
	store     *memStore
	entities  map[uuid.UUID]*models.Entity
	revisions []*models.Revision
}

func (t *memTx) Lock(ctx context.Context, id uuid.UUID) (*models.Entity, error) {
	if e := t.entities[id]; e != nil {
		return clone(e), nil
	}
	return nil, nil
}

func (t *memTx) Create(ctx context.Context, e *models.Entity) error {
	if _, ok := t.entities[e.ID]; ok {
		return fmt.Errorf("entity %s exists", e.ID)
	}
	assignSectionIDs(e)
	t.entities[e.ID] = clone(e)
	return nil
}

func (t *memTx) Save(ctx context.Context, e *models.Entity) error {
	if t.store.failSave != nil {
		return t.store.failSave
	}
	if _, ok := t.entities[e.ID]; !ok {
		return fmt.Errorf("update entity %s: no rows", e.ID)
	}
	assignSectionIDs(e)
	t.entities[e.ID] = clone(e)
	return nil
}

func assignSectionIDs(e *models.Entity) {
	for _, s := range e.Sections {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.GuideID = e.ID
		for _, it := range s.Items {
			if it.ID == uuid.Nil {
				it.ID = uuid.New()
			}
			it.SectionID = s.ID
		}
	}
}

func (t *memTx) DeleteSection(ctx context.Context, id uuid.UUID) error {
	for _, e := range t.entities {
		e.Sections = slices.DeleteFunc(e.Sections, func(s *models.Section) bool { return s.ID == id })
	}
	return nil
}

func (t *memTx) SetLastPublishedRevision(ctx context.Context, id uuid.UUID, revisionID int64) error {
	e := t.entities[id]
	if e == nil {
		return fmt.Errorf("entity %s not found", id)
	}
	e.LastPublishedRevisionID = &revisionID
	return nil
}

func (t *memTx) SlugTaken(ctx context.Context, kind models.ContentKind, lang, slug string, exclude uuid.UUID) (bool, error) {
	for _, id := range slices.Collect(maps.Keys(t.entities)) {
		e := t.entities[id]
		if id == exclude || e.Kind != kind {
			continue
		}
		if tr := e.Translation(lang); tr != nil && (tr.Slug == slug || tr.PublicSlug == slug) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Record(ctx context.Context, e *models.Entity, createdBy *uuid.UUID, comment string) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	id := int64(len(t.store.revisions) + len(t.revisions) + 1)
	t.revisions = append(t.revisions, &models.Revision{
		ID:        id,
		EntityID:  e.ID,
		Kind:      e.Kind,
		Status:    e.Status,
		Comment:   comment,
		Payload:   payload,
		CreatedBy: createdBy,
	})
	return id, nil
}

// fakeCache records invalidated entities.
type fakeCache struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (c *fakeCache) InvalidateEntity(ctx context.Context, kind models.ContentKind, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
}

// fakeLog records invalidation log actions.
type fakeLog struct {
	mu      sync.Mutex
	actions []string
}

func (l *fakeLog) Log(ctx context.Context, entityType string, id uuid.UUID, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, entityType+":"+action)
}
