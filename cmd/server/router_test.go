package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"service-runtime/config"
	"service-runtime/logging"
	"service-runtime/metrics"
	"service-runtime/middleware/errhandler"
	"service-runtime/middleware/errhandler/application"
	errdomain "service-runtime/middleware/errhandler/domain"
	reqdomain "service-runtime/middleware/reqctx/domain"
	"service-runtime/resource"
	"service-runtime/shutdown"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// stubStore responde Get conforme o id e rejeita todo Create como a camada
// de persistência faria com nome em branco.
type stubStore struct{}

func (stubStore) Create(context.Context, resource.Resource) (resource.Resource, error) {
	return resource.Resource{}, &errdomain.PersistenceValidationError{
		Message: "Validation error",
		Violations: []errdomain.FieldViolation{{
			Message: "Validation notEmpty on name failed", Path: "name", Value: "   ", Rule: "notEmpty",
		}},
	}
}

func (stubStore) Get(_ context.Context, id int64) (resource.Resource, error) {
	switch id {
	case 1:
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		return resource.Resource{ID: 1, Name: "alpha", Status: resource.StatusActive, CreatedAt: now, UpdatedAt: now}, nil
	case 666:
		panic("store exploded")
	case 500:
		return resource.Resource{}, errors.New("dial tcp: connection refused")
	}
	return resource.Resource{}, resource.ErrNotFound
}

func (stubStore) List(context.Context, resource.Filter) ([]resource.Resource, int, error) {
	return nil, 0, nil
}

func (stubStore) Update(context.Context, int64, resource.Patch) (resource.Resource, error) {
	return resource.Resource{}, resource.ErrNotFound
}

func (stubStore) Delete(context.Context, int64) error { return resource.ErrNotFound }

type fixture struct {
	srv     *httptest.Server
	logs    *observer.ObservedLogs
	coord   *shutdown.Coordinator
	metrics *metrics.Metrics
	exits   chan int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := logging.NewFromZap(zap.New(core))

	exits := make(chan int, 1)
	m := metrics.New("test")
	coord := shutdown.NewCoordinator(shutdown.Config{
		Deadline: time.Second,
		Logger:   logger,
		Exit:     func(code int) { exits <- code },
	})

	var n atomic.Int64
	ids := reqdomain.IDGeneratorFunc(func() string {
		return "req-" + string(rune('0'+n.Add(1)))
	})

	cfg := config.Config{RequestBodyLimit: 1 << 20}
	h := newRouter(deps{
		cfg:      cfg,
		logger:   logger,
		renderer: errhandler.NewRenderer(application.Classifier{Logger: logger, OnClassified: m.ObserveError}),
		metrics:  m,
		gate:     coord,
		store:    stubStore{},
		ids:      ids,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, logs: logs, coord: coord, metrics: m, exits: exits}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRouter_RootProbe(t *testing.T) {
	f := newFixture(t)

	resp, raw := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, "req-1", resp.Header.Get("X-Request-ID"))

	var msgs []string
	for _, e := range f.logs.All() {
		msgs = append(msgs, e.Message)
	}
	require.Len(t, msgs, 2)
	assert.Equal(t, "[req-1] Incoming request: GET /", msgs[0])
	assert.True(t, strings.HasPrefix(msgs[1], "[req-1] Completed request: GET / status=200 duration="), msgs[1])
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newFixture(t)

	resp, raw := f.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"NotFound","message":"Route not found"}`, string(raw))

	resp, raw = f.do(t, http.MethodPut, "/resources/1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"NotFound","message":"Route not found"}`, string(raw))
}

func TestRouter_PersistenceValidation(t *testing.T) {
	f := newFixture(t)

	resp, raw := f.do(t, http.MethodPost, "/resources", `{"name":"   "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, raw)
	assert.Equal(t, "PersistenceValidationError", body["error"])
	details := body["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "name", details[0].(map[string]any)["path"])
}

func TestRouter_InternalFaultsStayGeneric(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/resources/500", "/resources/666"} {
		resp, raw := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.JSONEq(t, `{"error":"InternalServerError","message":"Something went wrong"}`, string(raw))
		assert.NotContains(t, string(raw), "connection refused")
		assert.NotContains(t, string(raw), "exploded")
	}

	// a causa só aparece no log, com o prefixo da requisição
	logged := f.logs.FilterMessageSnippet("connection refused").All()
	require.Len(t, logged, 1)
	assert.True(t, strings.HasPrefix(logged[0].Message, "[req-1] "), logged[0].Message)
}

func TestRouter_GetResource(t *testing.T) {
	f := newFixture(t)

	resp, raw := f.do(t, http.MethodGet, "/resources/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, raw)
	assert.Equal(t, "alpha", body["name"])
	assert.Equal(t, "2024-05-01T12:00:00.000Z", body["createdAt"])

	resp, raw = f.do(t, http.MethodGet, "/resources/2", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"HttpError","message":"Resource not found"}`, string(raw))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/resources/1", "")
	f.do(t, http.MethodGet, "/resources/2", "")

	resp, raw := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(raw)
	assert.Contains(t, text, `test_http_requests_total{method="GET",route="/resources/{id}",status="200"} 1`)
	assert.Contains(t, text, `test_http_errors_total{kind="HttpError",status="404"} 1`)
}

func TestRouter_DrainingRejectsNewRequests(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.coord.Trigger("SIGTERM"))
	select {
	case code := <-f.exits:
		require.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not finish")
	}

	resp, raw := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode(t, raw)
	assert.Equal(t, "HttpError", body["error"])
	assert.Equal(t, "Service is shutting down", body["message"])
}
