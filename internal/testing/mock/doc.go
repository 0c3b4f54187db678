// Package mock provides test doubles for ems: a controllable clock and a
// mock Keycloak realm.
//
// KeycloakServer serves the OpenID Connect discovery document and the
// auth, token and logout endpoints of a single realm. It enforces S256
// PKCE, the exact redirect_uri and single use of authorization codes the
// way Keycloak does, and issues HS256 access tokens with realm_access and
// resource_access role claims. Tests use it to drive the login flow end
// to end without a browser:
//
//	kc := mock.NewKeycloakServer(mock.KeycloakConfig{
//	    Username:   "alice",
//	    RealmRoles: []string{"admin"},
//	})
//	defer kc.Close()
//
//	code := kc.GenerateAuthCode(redirectURI, challenge)
//
// ExchangeCount, TokenRequests and LogoutRequests expose what the server
// received.
package mock
