package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"ems/internal/app"
	"ems/internal/auth"
	"ems/internal/config"
	"ems/internal/session"
	"ems/internal/testing/mock"
	"ems/pkg/oauth"
)

// harness runs ems commands against a mock Keycloak realm with an
// in-memory durable session.
type harness struct {
	kc       *mock.KeycloakServer
	durable  *session.MemoryStorage
	settings config.Config
	rt       *runtime
	out      *bytes.Buffer
	errOut   *bytes.Buffer
	visited  chan string
}

func newHarness(t *testing.T, kcCfg mock.KeycloakConfig, gatewayURL string) *harness {
	t.Helper()

	kc := mock.NewKeycloakServer(kcCfg)
	t.Cleanup(kc.Close)

	settings := config.Default()
	settings.Keycloak.Issuer = kc.IssuerURL()
	settings.App.Origin = freeOrigin(t)
	settings.Session.PollInterval = 0
	settings.Login.Timeout = 10 * time.Second
	if gatewayURL != "" {
		settings.Gateway.URL = gatewayURL
	}

	h := &harness{
		kc:       kc,
		durable:  session.NewMemoryStorage(),
		settings: settings,
		out:      &bytes.Buffer{},
		errOut:   &bytes.Buffer{},
		visited:  make(chan string, 4),
	}
	h.rt = newRuntime(h.out, h.errOut)
	h.rt.settings = &h.settings
	h.rt.serviceOptions = []app.ServiceOption{
		app.WithDurableStorage(h.durable),
		app.WithOAuthOptions(oauth.WithHTTPClient(kc.HTTPClient())),
		app.WithFlowOptions(auth.WithBrowserOpener(fakeBrowser(kc.HTTPClient(), h.visited))),
	}
	return h
}

// run executes one ems command line, resetting the captured output first.
func (h *harness) run(args ...string) error {
	h.out.Reset()
	h.errOut.Reset()
	root := newRootCmd(h.rt)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// signIn stores a session for username directly, bypassing the browser.
func (h *harness) signIn(t *testing.T, username string, roles ...string) {
	t.Helper()
	svc, err := h.rt.services()
	require.NoError(t, err)

	token := mock.SignToken(jwt.MapClaims{
		"exp":                time.Now().Add(time.Hour).Unix(),
		"preferred_username": username,
		"realm_access":       map[string]any{"roles": roles},
	})
	require.NoError(t, svc.Repository.PersistTokens(&oauth.Token{AccessToken: token}))
}

func freeOrigin(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return fmt.Sprintf("http://localhost:%d", port)
}

// fakeBrowser visits a URL the way a signed-in user's browser would,
// following redirects back to the callback listener.
func fakeBrowser(client *http.Client, visited chan<- string) func(string) error {
	return func(u string) error {
		go func() {
			resp, err := client.Get(u)
			if err != nil {
				visited <- "error: " + err.Error()
				return
			}
			resp.Body.Close()
			visited <- resp.Request.URL.Path
		}()
		return nil
	}
}
