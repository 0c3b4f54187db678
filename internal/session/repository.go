package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"ems/pkg/logging"
	"ems/pkg/oauth"
)

// Durable storage keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserInfo     = "user_info"
	KeyOAuthState   = "oauth_state"

	// ProcessedCodePrefix prefixes the processed-code markers. Each marker
	// processed_code_<code> has a companion processed_code_<code>_time
	// holding its creation time in Unix milliseconds.
	ProcessedCodePrefix     = "processed_code_"
	processedCodeTimeSuffix = "_time"
	markerEscape            = "~"
)

// KeyCodeVerifier is the volatile storage key of the PKCE verifier.
const KeyCodeVerifier = "pkce_code_verifier"

// ProcessedCodeRetention is how long a processed-code marker survives
// before the sweep removes it.
const ProcessedCodeRetention = 5 * time.Minute

// EventReason says why the session changed.
type EventReason string

const (
	EventTokensPersisted EventReason = "tokens_persisted"
	EventIdentityUpdated EventReason = "identity_updated"
	EventCleared         EventReason = "cleared"
)

// Event is published on every session mutation that can change the
// authentication state.
type Event struct {
	Reason EventReason
	At     time.Time
}

// Repository is the session store. It owns the durable session (tokens,
// cached identity, anti-CSRF state, processed-code markers) and the
// volatile PKCE verifier, each behind its own Storage port.
type Repository struct {
	durable  Storage
	volatile Storage
	clock    Clock
	events   *Broadcaster[Event]

	// markerMu makes the processed-code check-and-set atomic within the process.
	markerMu sync.Mutex
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithClock sets the clock used for marker timestamps.
func WithClock(clock Clock) RepositoryOption {
	return func(r *Repository) {
		r.clock = clock
	}
}

// NewRepository creates a Repository over the given storage ports.
func NewRepository(durable, volatile Storage, opts ...RepositoryOption) *Repository {
	r := &Repository{
		durable:  durable,
		volatile: volatile,
		clock:    RealClock{},
		events:   NewBroadcaster[Event](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns the broadcaster that announces session changes made
// through this repository.
func (r *Repository) Events() *Broadcaster[Event] {
	return r.events
}

// Clock returns the repository clock.
func (r *Repository) Clock() Clock {
	return r.clock
}

func (r *Repository) publish(reason EventReason) {
	r.events.Publish(Event{Reason: reason, At: r.clock.Now()})
}

// AccessToken returns the stored access token, or "" when there is none.
func (r *Repository) AccessToken() (string, error) {
	v, _, err := r.durable.Get(KeyAccessToken)
	return v, err
}

// RefreshToken returns the stored refresh token, or "" when there is none.
func (r *Repository) RefreshToken() (string, error) {
	v, _, err := r.durable.Get(KeyRefreshToken)
	return v, err
}

// PersistTokens stores the tokens of a successful exchange and announces
// the change. A response without a refresh token removes any stale one so
// the session is always replaced as a whole.
//
// The access token's signature is not checked here; the gateway does that.
func (r *Repository) PersistTokens(token *oauth.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("token response has no access token")
	}

	if err := r.durable.Set(KeyAccessToken, token.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if token.RefreshToken != "" {
		if err := r.durable.Set(KeyRefreshToken, token.RefreshToken); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
	} else if err := r.durable.Remove(KeyRefreshToken); err != nil {
		return fmt.Errorf("failed to remove stale refresh token: %w", err)
	}

	r.publish(EventTokensPersisted)
	return nil
}

// SetIdentity caches the user identity projection. A nil identity removes it.
func (r *Repository) SetIdentity(identity *Identity) error {
	if identity == nil {
		if err := r.durable.Remove(KeyUserInfo); err != nil {
			return fmt.Errorf("failed to remove user info: %w", err)
		}
		r.publish(EventIdentityUpdated)
		return nil
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode user info: %w", err)
	}
	if err := r.durable.Set(KeyUserInfo, string(raw)); err != nil {
		return fmt.Errorf("failed to store user info: %w", err)
	}
	r.publish(EventIdentityUpdated)
	return nil
}

// Identity returns the cached identity projection. A missing or unreadable
// cache yields nil without error.
func (r *Repository) Identity() (*Identity, error) {
	raw, ok, err := r.durable.Get(KeyUserInfo)
	if err != nil || !ok {
		return nil, err
	}
	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		logging.Debug("Session", "Ignoring unreadable cached user info: %v", err)
		return nil, nil
	}
	return &identity, nil
}

// BeginFlow records a new login attempt, overwriting any previous one:
// the anti-CSRF state goes to durable storage and the PKCE verifier to
// volatile storage.
func (r *Repository) BeginFlow(state, verifier string) error {
	if err := r.durable.Set(KeyOAuthState, state); err != nil {
		return fmt.Errorf("failed to store OAuth state: %w", err)
	}
	if err := r.volatile.Set(KeyCodeVerifier, verifier); err != nil {
		return fmt.Errorf("failed to store PKCE verifier: %w", err)
	}
	return nil
}

// OAuthState returns the persisted anti-CSRF state, or "" when none.
func (r *Repository) OAuthState() (string, error) {
	v, _, err := r.durable.Get(KeyOAuthState)
	return v, err
}

// Verifier returns the PKCE verifier held in volatile storage.
func (r *Repository) Verifier() (string, bool, error) {
	v, ok, err := r.volatile.Get(KeyCodeVerifier)
	if v == "" {
		ok = false
	}
	return v, ok, err
}

// ClearOAuthState removes the anti-CSRF state.
func (r *Repository) ClearOAuthState() error {
	return r.durable.Remove(KeyOAuthState)
}

// ClearVerifier removes the PKCE verifier.
func (r *Repository) ClearVerifier() error {
	return r.volatile.Remove(KeyCodeVerifier)
}

// ClearFlow removes the anti-CSRF state and the PKCE verifier.
func (r *Repository) ClearFlow() error {
	return errors.Join(r.ClearOAuthState(), r.ClearVerifier())
}

// markerKey maps code to its marker key. A marker key never ends in the
// timestamp suffix: codes ending in it, or in the escape character, get one
// more escape character appended, which keeps the mapping one to one.
func markerKey(code string) string {
	if strings.HasSuffix(code, processedCodeTimeSuffix) || strings.HasSuffix(code, markerEscape) {
		code += markerEscape
	}
	return ProcessedCodePrefix + code
}

// isMarkerKey reports whether key is a processed-code marker rather than a
// marker's timestamp or an unrelated key.
func isMarkerKey(key string) bool {
	return strings.HasPrefix(key, ProcessedCodePrefix) && !strings.HasSuffix(key, processedCodeTimeSuffix)
}

// MarkCodeProcessed writes the processed-code marker for code. It returns
// false without writing when a marker already exists.
func (r *Repository) MarkCodeProcessed(code string) (bool, error) {
	r.markerMu.Lock()
	defer r.markerMu.Unlock()

	key := markerKey(code)
	_, exists, err := r.durable.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to read processed-code marker: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := r.durable.Set(key, "true"); err != nil {
		return false, fmt.Errorf("failed to write processed-code marker: %w", err)
	}
	now := strconv.FormatInt(r.clock.Now().UnixMilli(), 10)
	if err := r.durable.Set(key+processedCodeTimeSuffix, now); err != nil {
		return false, fmt.Errorf("failed to write processed-code marker: %w", err)
	}
	return true, nil
}

// UnmarkCode removes the marker for code and its timestamp.
func (r *Repository) UnmarkCode(code string) error {
	key := markerKey(code)
	return errors.Join(
		r.durable.Remove(key),
		r.durable.Remove(key+processedCodeTimeSuffix),
	)
}

// SweepProcessedCodes removes markers older than ProcessedCodeRetention and
// returns how many were removed. Markers without a timestamp are left alone.
func (r *Repository) SweepProcessedCodes() (int, error) {
	r.markerMu.Lock()
	defer r.markerMu.Unlock()

	keys, err := r.durable.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list session keys: %w", err)
	}

	now := r.clock.Now()
	removed := 0
	var errs []error
	for _, key := range keys {
		if !isMarkerKey(key) {
			continue
		}
		raw, ok, err := r.durable.Get(key + processedCodeTimeSuffix)
		if err != nil || !ok {
			continue
		}
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if now.Sub(time.UnixMilli(ms)) <= ProcessedCodeRetention {
			continue
		}
		if err := errors.Join(r.durable.Remove(key), r.durable.Remove(key+processedCodeTimeSuffix)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logging.Debug("Session", "Swept %d expired processed-code markers", removed)
	}
	return removed, errors.Join(errs...)
}

// Clear destroys the session: tokens, cached identity, anti-CSRF state and
// every processed-code marker. It keeps going after individual failures
// and reports them together.
func (r *Repository) Clear() error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUserInfo, KeyOAuthState} {
		if err := r.durable.Remove(key); err != nil {
			errs = append(errs, err)
		}
	}

	r.markerMu.Lock()
	keys, err := r.durable.Keys()
	if err != nil {
		errs = append(errs, err)
	}
	for _, key := range keys {
		// Markers and timestamps alike, including timestamps whose marker
		// is already gone.
		if !strings.HasPrefix(key, ProcessedCodePrefix) {
			continue
		}
		if err := r.durable.Remove(key); err != nil {
			errs = append(errs, err)
		}
	}
	r.markerMu.Unlock()

	r.publish(EventCleared)
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
