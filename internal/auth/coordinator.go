package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"ems/internal/session"
	"ems/pkg/logging"
)

// State is the Coordinator's position in a login attempt.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateExchanging
	StateSuccess
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateExchanging:
		return "exchanging"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends an attempt.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// CallbackParams are the query parameters of the provider redirect.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParamsFromQuery extracts CallbackParams from a redirect query.
func ParamsFromQuery(q url.Values) CallbackParams {
	return CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
}

// Result is the outcome of handling one callback.
type Result struct {
	// State is the Coordinator state after the callback.
	State State

	// Identity is set on Success.
	Identity *session.Identity

	// Err and Message describe a failure. Message is safe to show the user.
	Err     error
	Message string

	// Duplicate is set when the code was already being processed; nothing
	// was done and State is whatever the first delivery left.
	Duplicate bool
}

// Coordinator processes provider redirects. It is safe for concurrent use;
// a second concurrent delivery of the same code is suppressed by the
// processed-code marker.
type Coordinator struct {
	repo      *session.Repository
	exchanger Exchanger
	inspector *session.Inspector

	mu    sync.Mutex
	state State
}

// NewCoordinator creates a Coordinator in the Idle state.
func NewCoordinator(repo *session.Repository, exchanger Exchanger, inspector *session.Inspector) *Coordinator {
	return &Coordinator{
		repo:      repo,
		exchanger: exchanger,
		inspector: inspector,
		state:     StateIdle,
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset returns the Coordinator to Idle so another attempt can be handled.
func (c *Coordinator) Reset() {
	c.transition(StateIdle)
}

func (c *Coordinator) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()
	if from != to {
		logging.Debug("Auth", "Callback state %s -> %s", from, to)
	}
}

// Handle processes one provider redirect.
func (c *Coordinator) Handle(ctx context.Context, params CallbackParams) Result {
	if _, err := c.repo.SweepProcessedCodes(); err != nil {
		logging.Warn("Auth", "Failed to sweep processed-code markers: %v", err)
	}

	expected, err := c.repo.OAuthState()
	if err != nil {
		return c.fail(fmt.Errorf("failed to read OAuth state: %w", err))
	}
	// A redirect that does not carry our state never touches the Flow State,
	// whatever else it reports.
	if params.State == "" || params.State != expected {
		return c.fail(&CallbackError{Reason: ReasonInvalidResponse})
	}

	if params.Error != "" {
		if err := c.repo.ClearFlow(); err != nil {
			logging.Warn("Auth", "Failed to roll back login attempt: %v", err)
		}
		return c.fail(&ProviderError{Code: params.Error, Description: params.ErrorDescription})
	}
	if params.Code == "" {
		return c.fail(&CallbackError{Reason: ReasonInvalidResponse})
	}

	first, err := c.repo.MarkCodeProcessed(params.Code)
	if err != nil {
		return c.fail(err)
	}
	if !first {
		logging.Debug("Auth", "Ignoring duplicate callback for code %s", logging.TruncateSecret(params.Code))
		return Result{State: c.State(), Duplicate: true}
	}

	c.transition(StateValidating)
	if _, ok, err := c.repo.Verifier(); err != nil || !ok {
		if rollbackErr := errors.Join(c.repo.UnmarkCode(params.Code), c.repo.ClearOAuthState()); rollbackErr != nil {
			logging.Warn("Auth", "Failed to roll back login attempt: %v", rollbackErr)
		}
		return c.fail(&CallbackError{Reason: ReasonMissingVerifier})
	}

	c.transition(StateExchanging)
	return c.exchange(ctx, params.Code)
}

func (c *Coordinator) exchange(ctx context.Context, code string) Result {
	defer func() {
		if err := errors.Join(c.repo.UnmarkCode(code), c.repo.ClearFlow()); err != nil {
			logging.Warn("Auth", "Failed to clean up login attempt: %v", err)
		}
	}()

	token, err := c.exchanger.Exchange(ctx, code)
	if err != nil {
		return c.fail(err)
	}

	identity, err := c.inspector.DeriveIdentity(token.AccessToken)
	if err != nil {
		return c.fail(err)
	}
	if err := c.repo.PersistTokens(token); err != nil {
		return c.fail(err)
	}
	if err := c.repo.SetIdentity(identity); err != nil {
		return c.fail(err)
	}

	c.transition(StateSuccess)
	logging.Audit(logging.AuditEvent{
		Action:  "login_callback",
		Outcome: "success",
		Subject: identity.Username,
	})
	return Result{State: StateSuccess, Identity: identity}
}

func (c *Coordinator) fail(err error) Result {
	c.transition(StateFailed)
	msg := FailureMessage(err)
	logging.Audit(logging.AuditEvent{
		Action:  "login_callback",
		Outcome: "failure",
		Reason:  err.Error(),
	})
	return Result{State: StateFailed, Err: err, Message: msg}
}
