package mock

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signingKey signs every token the mock issues. Clients never verify
// signatures, so a fixed HMAC key is enough.
var signingKey = []byte("ems-mock-keycloak")

// SignToken encodes claims as an HS256 JWT.
func SignToken(claims jwt.Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("mock: failed to sign token: %v", err))
	}
	return token
}

// TimeSource is satisfied by MockClock and session.RealClock.
type TimeSource interface {
	Now() time.Time
}

// KeycloakConfig configures the mock Keycloak realm.
type KeycloakConfig struct {
	// Realm defaults to "employee-realm".
	Realm string

	// ClientID is the expected public client, defaults to "ems-app".
	ClientID string

	// User claims placed in issued access tokens.
	Subject     string
	Username    string
	Email       string
	RealmRoles  []string
	ClientRoles []string

	// TokenLifetime defaults to five minutes.
	TokenLifetime time.Duration

	// AutoApprove redirects /auth straight back to redirect_uri with a code.
	AutoApprove bool

	// Clock defaults to real time.
	Clock TimeSource

	// SimulateErrors can be set to simulate token endpoint failures.
	SimulateErrors *KeycloakErrorSimulation
}

// KeycloakErrorSimulation allows simulating error conditions.
type KeycloakErrorSimulation struct {
	// Status is the HTTP status of a simulated failure, default 400.
	Status int
	// Error and Description become the error and error_description fields.
	// Both empty sends a non-JSON body.
	Error       string
	Description string
}

type authCodeEntry struct {
	ClientID      string
	RedirectURI   string
	Scope         string
	CodeChallenge string
	Method        string
}

// KeycloakServer is a mock Keycloak realm serving discovery, authorization,
// token and logout endpoints.
type KeycloakServer struct {
	config KeycloakConfig
	server *httptest.Server

	mu          sync.Mutex
	authCodes   map[string]*authCodeEntry
	exchanges   int
	tokenForms  []url.Values
	logoutCalls []url.Values
}

// NewKeycloakServer starts a mock Keycloak realm. Call Close when done.
func NewKeycloakServer(config KeycloakConfig) *KeycloakServer {
	if config.Realm == "" {
		config.Realm = "employee-realm"
	}
	if config.ClientID == "" {
		config.ClientID = "ems-app"
	}
	if config.Subject == "" {
		config.Subject = "0c9b1c1e-5a7e-4c4f-9d55-6f1d0a2b3c4d"
	}
	if config.TokenLifetime == 0 {
		config.TokenLifetime = 5 * time.Minute
	}
	if config.Clock == nil {
		config.Clock = realTime{}
	}

	k := &KeycloakServer{
		config:    config,
		authCodes: make(map[string]*authCodeEntry),
	}

	prefix := "/realms/" + config.Realm
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"/.well-known/openid-configuration", k.handleDiscovery)
	mux.HandleFunc(prefix+"/protocol/openid-connect/auth", k.handleAuthorize)
	mux.HandleFunc(prefix+"/protocol/openid-connect/token", k.handleToken)
	mux.HandleFunc(prefix+"/protocol/openid-connect/logout", k.handleLogout)
	k.server = httptest.NewServer(mux)
	return k
}

type realTime struct{}

func (realTime) Now() time.Time { return time.Now() }

// Close shuts the server down.
func (k *KeycloakServer) Close() {
	k.server.Close()
}

// BaseURL is the Keycloak root, e.g. http://127.0.0.1:PORT.
func (k *KeycloakServer) BaseURL() string {
	return k.server.URL
}

// Realm returns the realm name.
func (k *KeycloakServer) Realm() string {
	return k.config.Realm
}

// IssuerURL returns the realm issuer.
func (k *KeycloakServer) IssuerURL() string {
	return k.server.URL + "/realms/" + k.config.Realm
}

// HTTPClient returns a client that talks to the server.
func (k *KeycloakServer) HTTPClient() *http.Client {
	return k.server.Client()
}

// AuthorizeURL returns the authorization endpoint.
func (k *KeycloakServer) AuthorizeURL() string {
	return k.IssuerURL() + "/protocol/openid-connect/auth"
}

// TokenURL returns the token endpoint.
func (k *KeycloakServer) TokenURL() string {
	return k.IssuerURL() + "/protocol/openid-connect/token"
}

// LogoutURL returns the logout endpoint.
func (k *KeycloakServer) LogoutURL() string {
	return k.IssuerURL() + "/protocol/openid-connect/logout"
}

// ExchangeCount returns how many authorization_code requests were received.
func (k *KeycloakServer) ExchangeCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.exchanges
}

// TokenRequests returns the forms posted to the token endpoint.
func (k *KeycloakServer) TokenRequests() []url.Values {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]url.Values(nil), k.tokenForms...)
}

// LogoutRequests returns the query parameters of each logout request.
func (k *KeycloakServer) LogoutRequests() []url.Values {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]url.Values(nil), k.logoutCalls...)
}

// SetErrorSimulation replaces the token endpoint error simulation.
func (k *KeycloakServer) SetErrorSimulation(sim *KeycloakErrorSimulation) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.config.SimulateErrors = sim
}

// GenerateAuthCode registers an authorization code as if the user had
// approved the request, and returns it.
func (k *KeycloakServer) GenerateAuthCode(redirectURI, codeChallenge string) string {
	code := randomString(24)
	k.mu.Lock()
	k.authCodes[code] = &authCodeEntry{
		ClientID:      k.config.ClientID,
		RedirectURI:   redirectURI,
		Scope:         "openid profile email",
		CodeChallenge: codeChallenge,
		Method:        "S256",
	}
	k.mu.Unlock()
	return code
}

// IssueAccessToken mints an access token for the configured user that
// expires after lifetime (negative for an already expired token).
func (k *KeycloakServer) IssueAccessToken(lifetime time.Duration) string {
	now := k.config.Clock.Now()
	claims := jwt.MapClaims{
		"iss":                k.IssuerURL(),
		"sub":                k.config.Subject,
		"aud":                "account",
		"azp":                k.config.ClientID,
		"typ":                "Bearer",
		"iat":                now.Unix(),
		"exp":                now.Add(lifetime).Unix(),
		"realm_access":       map[string]any{"roles": nonNil(k.config.RealmRoles)},
		"resource_access":    map[string]any{k.config.ClientID: map[string]any{"roles": nonNil(k.config.ClientRoles)}},
		"scope":              "openid profile email",
		"email_verified":     k.config.Email != "",
		"preferred_username": k.config.Username,
	}
	if k.config.Email != "" {
		claims["email"] = k.config.Email
	}
	if k.config.Username == "" {
		delete(claims, "preferred_username")
	}
	return SignToken(claims)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (k *KeycloakServer) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	issuer := k.IssuerURL()
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                           issuer,
		"authorization_endpoint":           issuer + "/protocol/openid-connect/auth",
		"token_endpoint":                   issuer + "/protocol/openid-connect/token",
		"end_session_endpoint":             issuer + "/protocol/openid-connect/logout",
		"jwks_uri":                         issuer + "/protocol/openid-connect/certs",
		"response_types_supported":         []string{"code"},
		"grant_types_supported":            []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported": []string{"plain", "S256"},
	})
}

func (k *KeycloakServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("response_type") != "code" {
		http.Error(w, "unsupported_response_type", http.StatusBadRequest)
		return
	}
	if q.Get("client_id") != k.config.ClientID {
		http.Error(w, "invalid_client", http.StatusBadRequest)
		return
	}
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		http.Error(w, "PKCE required: S256 code_challenge missing", http.StatusBadRequest)
		return
	}

	code := k.GenerateAuthCode(q.Get("redirect_uri"), q.Get("code_challenge"))

	if !k.config.AutoApprove {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, code)
		return
	}

	redirectURL, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}
	rq := redirectURL.Query()
	rq.Set("code", code)
	rq.Set("state", q.Get("state"))
	redirectURL.RawQuery = rq.Encode()
	http.Redirect(w, r, redirectURL.String(), http.StatusFound)
}

func (k *KeycloakServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	k.mu.Lock()
	k.tokenForms = append(k.tokenForms, r.PostForm)
	if r.PostForm.Get("grant_type") == "authorization_code" {
		k.exchanges++
	}
	sim := k.config.SimulateErrors
	k.mu.Unlock()

	if sim != nil {
		status := sim.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		if sim.Error == "" && sim.Description == "" {
			w.WriteHeader(status)
			return
		}
		body := map[string]string{"error": sim.Error}
		if sim.Description != "" {
			body["error_description"] = sim.Description
		}
		writeJSON(w, status, body)
		return
	}

	if grant := r.PostForm.Get("grant_type"); grant != "authorization_code" {
		tokenError(w, "unsupported_grant_type", fmt.Sprintf("grant_type %s not supported", grant))
		return
	}

	code := r.PostForm.Get("code")
	k.mu.Lock()
	entry, ok := k.authCodes[code]
	delete(k.authCodes, code)
	k.mu.Unlock()

	switch {
	case !ok:
		tokenError(w, "invalid_grant", "Code not valid")
	case r.PostForm.Get("client_id") != entry.ClientID:
		tokenError(w, "unauthorized_client", "Client ID mismatch")
	case r.PostForm.Get("redirect_uri") != entry.RedirectURI:
		tokenError(w, "invalid_grant", "Incorrect redirect_uri")
	case r.PostForm.Get("code_verifier") == "":
		tokenError(w, "invalid_grant", "PKCE code verifier not specified")
	case !verifyS256(entry.CodeChallenge, r.PostForm.Get("code_verifier")):
		tokenError(w, "invalid_grant", "PKCE verification failed: Code mismatch")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":       k.IssueAccessToken(k.config.TokenLifetime),
			"refresh_token":      randomString(32),
			"id_token":           randomString(32),
			"token_type":         "Bearer",
			"expires_in":         int(k.config.TokenLifetime.Seconds()),
			"refresh_expires_in": 1800,
			"scope":              entry.Scope,
		})
	}
}

func (k *KeycloakServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	k.mu.Lock()
	k.logoutCalls = append(k.logoutCalls, q)
	k.mu.Unlock()

	if redirect := q.Get("redirect_uri"); redirect != "" {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func verifyS256(challenge, verifier string) bool {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:]) == challenge
}

func tokenError(w http.ResponseWriter, code, description string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func randomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("mock: crypto/rand failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
