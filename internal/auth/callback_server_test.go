package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/testing/mock"
)

func newTestCallbackServer(t *testing.T, f *fixture) (*CallbackServer, *httptest.Server) {
	t.Helper()
	cs, err := NewCallbackServer(f.provider.RedirectURI, f.coordinator())
	require.NoError(t, err)
	ts := httptest.NewServer(cs.Handler())
	t.Cleanup(ts.Close)
	return cs, ts
}

func get(t *testing.T, rawURL string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNewCallbackServer_Address(t *testing.T) {
	tests := []struct {
		redirect string
		addr     string
		wantErr  bool
	}{
		{redirect: "http://localhost:3000/auth/callback", addr: "127.0.0.1:3000"},
		{redirect: "http://127.0.0.1:8081/cb", addr: "127.0.0.1:8081"},
		{redirect: "http://[::1]:3000/auth/callback", addr: "[::1]:3000"},
		{redirect: "https://localhost:3000/auth/callback", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.redirect, func(t *testing.T) {
			cs, err := NewCallbackServer(tt.redirect, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cs.Addr())
		})
	}
}

func TestCallbackServer_Success(t *testing.T) {
	f := newFixture(t, mock.KeycloakConfig{Username: "alice", ClientRoles: []string{"ADMIN"}})
	cs, ts := newTestCallbackServer(t, f)
	code, state := f.beginLogin(t)

	resp, body := get(t, ts.URL+"/auth/callback?"+url.Values{"code": {code}, "state": {state}}.Encode())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Contains(t, body, "Signed in")
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "ADMIN")

	select {
	case result := <-cs.Results():
		assert.Equal(t, StateSuccess, result.State)
	default:
		t.Fatal("expected a result")
	}
}

func TestCallbackServer_Failure(t *testing.T) {
	f := newFixture(t, mock.KeycloakConfig{})
	cs, ts := newTestCallbackServer(t, f)
	f.beginLogin(t)

	resp, body := get(t, ts.URL+"/auth/callback?code=abc&state=forged")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "invalid authorization response")
	assert.Contains(t, body, "ems auth login")

	result := <-cs.Results()
	assert.Equal(t, StateFailed, result.State)
}

func TestCallbackServer_EscapesProviderMessage(t *testing.T) {
	f := newFixture(t, mock.KeycloakConfig{})
	_, ts := newTestCallbackServer(t, f)

	_, body := get(t, ts.URL+"/auth/callback?"+url.Values{
		"error":             {"access_denied"},
		"error_description": {"<script>alert(1)</script>"},
	}.Encode())

	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestCallbackServer_SignedOutPage(t *testing.T) {
	f := newFixture(t, mock.KeycloakConfig{})
	_, ts := newTestCallbackServer(t, f)

	resp, body := get(t, ts.URL+"/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Signed out")

	resp, _ = get(t, ts.URL+"/elsewhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
