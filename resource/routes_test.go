package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"service-runtime/middleware/errhandler"
	"service-runtime/middleware/errhandler/application"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore aplica as mesmas regras de modelo do PostgresStore.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Resource
	failOn string
}

func newMemStore() *memStore { return &memStore{rows: map[int64]Resource{}} }

func (m *memStore) Create(_ context.Context, r Resource) (Resource, error) {
	if m.failOn == "create" {
		return Resource{}, errors.New("connection reset by peer")
	}
	if err := validateModel(r); err != nil {
		return Resource{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Date(2024, 1, 1, 0, 0, int(r.ID), 0, time.UTC)
	r.UpdatedAt = r.CreatedAt
	m.rows[r.ID] = r
	return r, nil
}

func (m *memStore) Get(_ context.Context, id int64) (Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return Resource{}, ErrNotFound
	}
	return r, nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]Resource, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Resource
	for _, r := range m.rows {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Query)) {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	count := len(all)
	if f.Offset >= len(all) {
		return []Resource{}, count, nil
	}
	all = all[f.Offset:]
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, count, nil
}

func (m *memStore) Update(_ context.Context, id int64, p Patch) (Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return Resource{}, ErrNotFound
	}
	p.apply(&r)
	if err := validateModel(r); err != nil {
		return Resource{}, err
	}
	m.rows[id] = r
	return r, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func newTestServer(t *testing.T, store Store) *httptest.Server {
	t.Helper()
	h := &Handler{Store: store, Renderer: errhandler.NewRenderer(application.Classifier{})}
	srv := httptest.NewServer(Routes(h))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestRoutes_CRUDLifecycle(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	code, body := do(t, srv, http.MethodPost, "/", `{"name":"alpha","description":"first"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "2024-01-01T00:00:01.000Z", body["createdAt"])

	code, _ = do(t, srv, http.MethodPost, "/", `{"name":"beta","status":"archived"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body = do(t, srv, http.MethodGet, "/?status=active&limit=10", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(10), body["limit"])
	assert.Equal(t, float64(0), body["offset"])
	assert.Len(t, body["data"], 1)

	code, body = do(t, srv, http.MethodPatch, "/1", `{"description":null,"status":"archived"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["description"])
	assert.Equal(t, "archived", body["status"])

	code, body = do(t, srv, http.MethodGet, "/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alpha", body["name"])

	code, _ = do(t, srv, http.MethodDelete, "/1", "")
	require.Equal(t, http.StatusNoContent, code)

	code, body = do(t, srv, http.MethodGet, "/1", "")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, map[string]any{"error": "HttpError", "message": "Resource not found"}, body)
}

func TestRoutes_ErrorEnvelopes(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	code, body := do(t, srv, http.MethodPost, "/", `{"name":"   "}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "PersistenceValidationError", body["error"])
	details := body["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "name", details[0].(map[string]any)["path"])
	assert.Equal(t, "notEmpty", details[0].(map[string]any)["validatorKey"])

	code, body = do(t, srv, http.MethodPost, "/", `{}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ValidationError", body["error"])
	assert.Equal(t, "Invalid request", body["message"])
	issues := body["issues"].([]any)
	assert.Equal(t, []any{"name"}, issues[0].(map[string]any)["path"])

	code, body = do(t, srv, http.MethodGet, "/abc", "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ValidationError", body["error"])

	code, body = do(t, srv, http.MethodPatch, "/1", `{}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, map[string]any{"error": "HttpError", "message": "No fields provided to update"}, body)

	code, _ = do(t, srv, http.MethodDelete, "/99", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestRoutes_StoreFailureIsInternal(t *testing.T) {
	store := newMemStore()
	store.failOn = "create"
	srv := newTestServer(t, store)

	code, body := do(t, srv, http.MethodPost, "/", `{"name":"alpha"}`)
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, map[string]any{"error": "InternalServerError", "message": "Something went wrong"}, body)
}

func TestRoutes_BodyTooLarge(t *testing.T) {
	h := &Handler{Store: newMemStore(), BodyLimit: 32}
	srv := httptest.NewServer(Routes(h))
	defer srv.Close()

	code, body := do(t, srv, http.MethodPost, "/", `{"name":"`+strings.Repeat("a", 100)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "HttpError", body["error"])
}
