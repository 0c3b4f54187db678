// Package oauth provides the OAuth 2.1 public-client primitives used by ems.
//
// # Core Components
//
//   - PKCE: code verifier, S256 challenge and state generation (RFC 7636)
//   - Client: OIDC endpoint discovery, authorization and logout URLs, code exchange
//   - Token: the token endpoint response
//   - ExchangeError: a failed token request carrying the provider's message
//
// Endpoint discovery reads {issuer}/.well-known/openid-configuration. When the
// document cannot be fetched, ResolveEndpoints derives the Keycloak endpoints
// {issuer}/protocol/openid-connect/{auth,token,logout} instead.
//
// # Usage
//
//	client := oauth.NewClient(oauth.WithHTTPClient(httpClient))
//	endpoints := client.ResolveEndpoints(ctx, oauth.KeycloakIssuer(baseURL, realm))
//
//	pkce, err := oauth.GeneratePKCE(nil)
//	authURL, err := client.BuildAuthorizationURL(endpoints.AuthorizationEndpoint, oauth.AuthorizationRequest{
//	    ClientID:      "ems-app",
//	    RedirectURI:   redirectURI,
//	    State:         state,
//	    CodeChallenge: pkce.CodeChallenge,
//	})
//
//	token, err := client.ExchangeCode(ctx, endpoints.TokenEndpoint, code, redirectURI, "ems-app", pkce.CodeVerifier)
//
// Refresh tokens are returned and stored by callers but never exchanged.
package oauth
