// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"mentorocms/internal/authz"
	"mentorocms/internal/cache"
	"mentorocms/internal/database"
	"mentorocms/internal/editorial"
	"mentorocms/internal/middleware"
	"mentorocms/internal/models"
	"mentorocms/internal/session"
	"mentorocms/internal/store"
	"mentorocms/internal/workflow"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "mentoro")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "mentoro")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*", "page-index:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB        *sql.DB
	Valkey    *redis.Client
	Sessions  *session.Store
	UserStore *store.UserStore
	PageCache *cache.PageCache
	Service   *editorial.Service
	Editorial *Editorial
	Auth      *Auth
	Public    *Public
	Users     *Users
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	pageCache := cache.NewPageCache(vk, time.Minute)

	machine := workflow.NewMachine(authz.NewPolicy(nil))
	svc := editorial.New(machine, editorial.NewSQLStore(db), editorial.Options{
		Languages:       []string{"en", "de"},
		DefaultLanguage: "en",
		Cache:           pageCache,
		CacheLog:        store.NewCacheLogStore(db),
	})

	return &testEnv{
		DB:        db,
		Valkey:    vk,
		Sessions:  sessions,
		UserStore: userStore,
		PageCache: pageCache,
		Service:   svc,
		Editorial: NewEditorial(svc, store.NewRevisionStore(db), store.NewCacheLogStore(db)),
		Auth:      NewAuth(sessions, userStore),
		Public:    NewPublic(svc, pageCache),
		Users:     NewUsers(userStore),
	}
}

// testUser creates a user with the given role and removes it, and the
// content it authored, when the test ends.
func (env *testEnv) testUser(t *testing.T, role models.Role, groups ...string) *models.User {
	t.Helper()
	ctx := context.Background()

	email := "handler-" + uuid.NewString()[:8] + "@mentoro.test"
	u, err := env.UserStore.Create(ctx, email, "password123", "Handler Test", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	for _, g := range groups {
		if err := env.UserStore.AddToGroup(ctx, u.ID, g); err != nil {
			t.Fatalf("add group: %v", err)
		}
	}
	u, err = env.UserStore.FindByID(ctx, u.ID)
	if err != nil || u == nil {
		t.Fatalf("reload user: %v", err)
	}

	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM entities WHERE author_id = $1", u.ID)
		env.UserStore.Delete(context.Background(), u.ID)
	})
	return u
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// apiRequest builds a request with a JSON body, chi URL params and, when
// actor is not nil, the actor and its session in the context.
func apiRequest(method, target string, body any, actor *models.User, params map[string]string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if actor != nil {
		ctx = context.WithValue(ctx, middleware.ActorKey, actor)
		ctx = context.WithValue(ctx, middleware.SessionKey, testSession(actor.ID, actor.Email, string(actor.Role), true))
	}
	return r.WithContext(ctx)
}

// decodeBody unmarshals a recorded JSON response into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// createEntity creates a draft through the handler and returns it.
func (env *testEnv) createEntity(t *testing.T, kind models.ContentKind, author *models.User, title string) *models.Entity {
	t.Helper()
	body := editorial.Draft{Translations: map[string]map[string]string{
		"en": {"title": title, "intro": "Intro of " + title, "body": "<p>Body of " + title + "</p>"},
	}}
	rec := httptest.NewRecorder()
	env.Editorial.Create(rec, apiRequest(http.MethodPost, "/admin/api/"+string(kind), body, author,
		map[string]string{"kind": string(kind)}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Entity *models.Entity `json:"entity"`
	}
	decodeBody(t, rec, &resp)
	return resp.Entity
}

// transition applies name to e as actor through the handler.
func (env *testEnv) transition(e *models.Entity, name string, actor *models.User) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.Editorial.Transition(rec, apiRequest(http.MethodPost, "/admin/api/transition", nil, actor,
		map[string]string{"kind": string(e.Kind), "id": e.ID.String(), "transition": name}))
	return rec
}
