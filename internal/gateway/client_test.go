package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/session"
	"ems/pkg/oauth"
)

type recordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	CorrelationID string
	Body          map[string]any
}

type fakeGateway struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func newFakeGateway(t *testing.T, handler http.HandlerFunc) *fakeGateway {
	t.Helper()
	g := &fakeGateway{handler: handler}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			CorrelationID: r.Header.Get(CorrelationHeader),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		g.mu.Lock()
		g.requests = append(g.requests, rec)
		g.mu.Unlock()
		g.handler(w, r)
	}))
	t.Cleanup(g.Close)
	return g
}

func (g *fakeGateway) last() recordedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newRepo(t *testing.T, accessToken string) (*session.Repository, *session.MemoryStorage) {
	t.Helper()
	durable := session.NewMemoryStorage()
	repo := session.NewRepository(durable, session.NewMemoryStorage())
	if accessToken != "" {
		require.NoError(t, repo.PersistTokens(&oauth.Token{AccessToken: accessToken, RefreshToken: "r"}))
	}
	return repo, durable
}

func TestTransport_AttachesCredentials(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []Department{})
	})
	repo, _ := newRepo(t, "a.b.c")
	client := NewClient(g.URL, repo)

	_, err := client.Departments.List(context.Background())
	require.NoError(t, err)

	req := g.last()
	assert.Equal(t, "Bearer a.b.c", req.Authorization)
	_, err = uuid.Parse(req.CorrelationID)
	assert.NoError(t, err, "correlation id must be a UUID")
}

func TestTransport_AnonymousWithoutToken(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []Department{})
	})
	repo, _ := newRepo(t, "")

	_, err := NewClient(g.URL, repo).Departments.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, g.last().Authorization)
}

func TestTransport_KeepsCallerCorrelationID(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	repo, _ := newRepo(t, "a.b.c")
	rt := NewTransport(nil, repo)
	rt.NewCorrelationID = func() string { return "generated" }

	req, err := http.NewRequest(http.MethodGet, g.URL+"/ping", nil)
	require.NoError(t, err)
	req.Header.Set(CorrelationHeader, "from-caller")

	resp, err := (&http.Client{Transport: rt}).Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "from-caller", g.last().CorrelationID)
	assert.Empty(t, req.Header.Get("Authorization"), "the caller's request is not mutated")
}

func TestTransport_UnauthorizedClearsSession(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
	})
	repo, durable := newRepo(t, "a.b.c")
	require.NoError(t, repo.SetIdentity(&session.Identity{Username: "alice"}))
	_, err := repo.MarkCodeProcessed("code")
	require.NoError(t, err)

	events, cancel := repo.Events().Subscribe(8)
	defer cancel()

	_, err = NewClient(g.URL, repo).Employees.Get(context.Background(), 7)

	var expired *ErrSessionExpired
	require.True(t, errors.As(err, &expired), "got %T: %v", err, err)
	assert.Equal(t, http.MethodGet, expired.Method)
	assert.Equal(t, "/employee-service/employees/7", expired.Path)
	assert.NotEmpty(t, expired.CorrelationID)

	keys, err := durable.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.NotEmpty(t, events)
}

func TestClient_APIError(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"timestamp":     "2024-03-01T09:00:00Z",
			"error":         "Forbidden",
			"message":       "Access Denied",
			"correlationId": "cid-1",
		})
	})
	repo, _ := newRepo(t, "a.b.c")

	err := NewClient(g.URL, repo).Departments.Delete(context.Background(), 3)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.True(t, apiErr.IsForbidden())
	assert.Equal(t, "Access Denied", apiErr.Message)
	assert.Equal(t, "cid-1", apiErr.CorrelationID)
	assert.Equal(t, "gateway returned 403: Access Denied", apiErr.Error())
	assert.Equal(t, http.MethodDelete, g.last().Method)
	assert.Equal(t, "/department-service/departments/3", g.last().Path)
}

func TestClient_APIErrorPlainBody(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})
	repo, _ := newRepo(t, "a.b.c")

	_, err := NewClient(g.URL, repo).Departments.Get(context.Background(), 1)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream unavailable", apiErr.Message)
	assert.Equal(t, g.last().CorrelationID, apiErr.CorrelationID)
}
