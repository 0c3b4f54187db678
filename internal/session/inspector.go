package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the role that marks an administrator, compared case-insensitively.
const AdminRole = "ADMIN"

// ErrMalformedToken is returned when an access token is not three
// dot-separated segments with a JSON payload.
var ErrMalformedToken = errors.New("malformed access token")

// Identity is the user identity projection cached in user_info.
type Identity struct {
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles"`
}

// RoleAccess is a Keycloak role list.
type RoleAccess struct {
	Roles []string `json:"roles"`
}

// Claims are the access token claims ems reads. Keycloak places realm
// roles in realm_access and per-client roles in resource_access.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string                `json:"preferred_username,omitempty"`
	Email             string                `json:"email,omitempty"`
	RealmAccess       *RoleAccess           `json:"realm_access,omitempty"`
	ResourceAccess    map[string]RoleAccess `json:"resource_access,omitempty"`
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims decodes the payload segment of token without verifying its
// signature.
func DecodeClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return &claims, nil
}

// Status is the authentication state shown by the CLI chrome.
type Status struct {
	Authenticated bool
	Identity      *Identity
	Admin         bool
	ExpiresAt     time.Time
}

// Equal reports whether two statuses would render the same.
func (s Status) Equal(o Status) bool {
	if s.Authenticated != o.Authenticated || s.Admin != o.Admin || !s.ExpiresAt.Equal(o.ExpiresAt) {
		return false
	}
	if (s.Identity == nil) != (o.Identity == nil) {
		return false
	}
	if s.Identity == nil {
		return true
	}
	if s.Identity.Username != o.Identity.Username || s.Identity.Email != o.Identity.Email {
		return false
	}
	if len(s.Identity.Roles) != len(o.Identity.Roles) {
		return false
	}
	for i := range s.Identity.Roles {
		if s.Identity.Roles[i] != o.Identity.Roles[i] {
			return false
		}
	}
	return true
}

// Inspector answers "is the user authenticated" and "is the user an admin"
// from the stored access token alone. It never makes network calls.
type Inspector struct {
	repo     *Repository
	clientID string
	clock    Clock
}

// NewInspector creates an Inspector. clientID selects the resource_access
// entry whose roles belong to this application.
func NewInspector(repo *Repository, clientID string, clock Clock) *Inspector {
	if clock == nil {
		clock = RealClock{}
	}
	return &Inspector{repo: repo, clientID: clientID, clock: clock}
}

// IsAuthenticated returns true only when a well-formed access token is
// stored and its exp claim is strictly in the future. A missing exp claim,
// a malformed token or a storage failure all mean false.
func (i *Inspector) IsAuthenticated() bool {
	_, ok := i.expiry()
	return ok
}

func (i *Inspector) expiry() (time.Time, bool) {
	token, err := i.repo.AccessToken()
	if err != nil || token == "" {
		return time.Time{}, false
	}

	claims, err := DecodeClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	exp := claims.ExpiresAt.Time
	return exp, exp.UnixMilli() > i.clock.Now().UnixMilli()
}

// DeriveIdentity builds the identity projection from an access token.
func (i *Inspector) DeriveIdentity(token string) (*Identity, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, err
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Subject
	}

	return &Identity{
		Username: username,
		Email:    claims.Email,
		Roles:    i.roles(claims),
	}, nil
}

func (i *Inspector) roles(claims *Claims) []string {
	roles := []string{}
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, r := range list {
			if !seen[r] {
				seen[r] = true
				roles = append(roles, r)
			}
		}
	}

	if claims.RealmAccess != nil {
		add(claims.RealmAccess.Roles)
	}
	if access, ok := claims.ResourceAccess[i.clientID]; ok {
		add(access.Roles)
	}
	return roles
}

// IsAdmin reports whether identity holds the ADMIN role in any letter case.
func IsAdmin(identity *Identity) bool {
	if identity == nil {
		return false
	}
	for _, r := range identity.Roles {
		if strings.ToUpper(r) == AdminRole {
			return true
		}
	}
	return false
}

// Status returns the current authentication state. The identity is the
// cached projection, derived from the token when the cache is empty.
func (i *Inspector) Status() Status {
	exp, ok := i.expiry()
	if !ok {
		return Status{}
	}

	identity, err := i.repo.Identity()
	if err != nil || identity == nil {
		if token, tokenErr := i.repo.AccessToken(); tokenErr == nil {
			identity, _ = i.DeriveIdentity(token)
		}
	}

	return Status{
		Authenticated: true,
		Identity:      identity,
		Admin:         IsAdmin(identity),
		ExpiresAt:     exp,
	}
}
