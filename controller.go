package authkit

import (
	"context"
	"sync"

	"github.com/routinely/authkit/token"
)

// Fallback messages per operation, used when the server supplies no detail.
const (
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
	msgGoogleFailed   = "Google sign-in failed"
	msgCompleteFailed = "Failed to complete sign-in"
	msgProfileFailed  = "Profile update failed"
	msgUserFailed     = "User update failed"
)

// Controller owns the session state machine. All session-affecting
// operations converge here: UI callers, the bootstrap loader, and the OAuth
// completion flow all dispatch through the same reducer, so there is one
// authoritative AuthState.
type Controller struct {
	api    API
	tokens token.Store
	logger Logger

	mu    sync.Mutex
	state AuthState

	// onChange is invoked after every dispatch with the new state, outside
	// the state lock.
	onChange func(AuthState)

	// bootstrap one-shot latch: set before the load begins, cleared when it
	// settles. A concurrent second invocation observes it and exits without
	// dispatching.
	loadMu      sync.Mutex
	loadingUser bool
}

// ControllerOption customizes controller construction.
type ControllerOption func(*Controller)

// WithLogger overrides the controller logger.
func WithLogger(logger Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnChange registers a hook invoked with the state after each dispatch.
func WithOnChange(fn func(AuthState)) ControllerOption {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates the session controller. The api performs the remote
// calls; the store holds the live credential pair.
func NewController(api API, tokens token.Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:    api,
		tokens: tokens,
		logger: defLogger{},
		state:  InitialState(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// State returns a snapshot of the current session state.
func (c *Controller) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies an action through the reducer. The reducer runs
// atomically under the state lock; no partial state is ever observable.
func (c *Controller) Dispatch(action Action) AuthState {
	c.mu.Lock()
	c.state = Reduce(c.state, action)
	next := c.state
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(next)
	}
	return next
}

// Login authenticates with email and password. On failure the extracted
// message lands in AuthState.Error and the error is re-raised so forms can
// react synchronously.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.Dispatch(LoginStart())

	user, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.Dispatch(LoginFailure(ErrorMessage(err, msgLoginFailed)))
		return err
	}

	c.Dispatch(LoginSuccess(user))
	return nil
}

// Register creates a new account. Same shape as Login.
func (c *Controller) Register(ctx context.Context, data RegistrationData) error {
	c.Dispatch(RegisterStart())

	user, err := c.api.Register(ctx, data)
	if err != nil {
		c.Dispatch(RegisterFailure(ErrorMessage(err, msgRegisterFailed)))
		return err
	}

	c.Dispatch(RegisterSuccess(user))
	return nil
}

// Logout signs the session out. The remote call is best-effort: a network
// failure is logged but never blocks local sign-out. Idempotent.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.api.Logout(ctx); err != nil {
		c.logger.Warn("logout request failed: %v", err)
	}

	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("clearing tokens on logout: %v", err)
	}

	c.Dispatch(Logout())
}

// RefreshToken exchanges the stored refresh token for a new pair and
// re-fetches the current user. Failures degrade silently to signed-out;
// no error escapes to the caller.
func (c *Controller) RefreshToken(ctx context.Context) {
	refresh, ok := c.tokens.Get(token.SlotRefresh)
	if !ok || refresh == "" {
		return
	}

	c.Dispatch(RefreshStart())

	pair, err := c.api.RefreshTokens(ctx, refresh)
	if err != nil {
		c.logger.Warn("token refresh failed: %v", err)
		c.Dispatch(RefreshFailure())
		return
	}

	if err := c.tokens.SetPair(pair.Access, pair.Refresh); err != nil {
		c.logger.Error("persisting refreshed tokens: %v", err)
		c.Dispatch(RefreshFailure())
		return
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("user fetch after refresh failed: %v", err)
		c.Dispatch(RefreshFailure())
		return
	}

	c.Dispatch(RefreshSuccess(user))
}

// LoadUser hydrates the session from a persisted access token. It runs once
// per mount: a concurrent second call observes the one-shot latch and exits
// immediately without dispatching. A missing token is not an error; a stored
// but rejected token empties the store so it cannot linger.
func (c *Controller) LoadUser(ctx context.Context) {
	c.loadMu.Lock()
	if c.loadingUser {
		c.loadMu.Unlock()
		return
	}
	c.loadingUser = true
	c.loadMu.Unlock()

	defer func() {
		c.loadMu.Lock()
		c.loadingUser = false
		c.loadMu.Unlock()
	}()

	access, ok := c.tokens.Get(token.SlotAccess)
	if !ok || access == "" {
		c.Dispatch(LoadUserFailure())
		return
	}

	c.Dispatch(LoadUserStart())

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("failed to load user: %v", err)
		c.Dispatch(LoadUserFailure())
		if cerr := c.tokens.Clear(); cerr != nil {
			c.logger.Warn("clearing stale tokens: %v", cerr)
		}
		return
	}

	c.Dispatch(LoadUserSuccess(user))
}

// UpdateProfile applies a partial profile update, then re-fetches the
// canonical user record. Failures are treated as session-affecting: they
// take the login-failure path and are re-raised.
func (c *Controller) UpdateProfile(ctx context.Context, data ProfileData) error {
	if _, err := c.api.UpdateProfile(ctx, data); err != nil {
		c.Dispatch(LoginFailure(ErrorMessage(err, msgProfileFailed)))
		return err
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.Dispatch(LoginFailure(ErrorMessage(err, msgProfileFailed)))
		return err
	}

	c.Dispatch(UpdateProfileSuccess(user))
	return nil
}

// UpdateUser applies a partial account update, then re-fetches the
// canonical user record.
func (c *Controller) UpdateUser(ctx context.Context, data UserData) error {
	if _, err := c.api.UpdateUser(ctx, data); err != nil {
		c.Dispatch(LoginFailure(ErrorMessage(err, msgUserFailed)))
		return err
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.Dispatch(LoginFailure(ErrorMessage(err, msgUserFailed)))
		return err
	}

	c.Dispatch(UpdateUserSuccess(user))
	return nil
}

// CompleteOAuthSignIn finalizes a redirect-delivered sign-in: it stores the
// pair issued by the backend redirect and fetches the current user with the
// new access token. No token exchange call is made; the redirect is trusted
// as the credential carrier.
func (c *Controller) CompleteOAuthSignIn(ctx context.Context, access, refresh string) error {
	c.Dispatch(GoogleStart())

	if access == "" {
		c.Dispatch(GoogleFailure(msgCompleteFailed))
		return ErrMissingCredentials
	}

	if err := c.tokens.SetPair(access, refresh); err != nil {
		c.Dispatch(GoogleFailure(msgCompleteFailed))
		return err
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		c.Dispatch(GoogleFailure(ErrorMessage(err, msgCompleteFailed)))
		return err
	}

	c.Dispatch(GoogleSuccess(user))
	return nil
}

// HandleGoogleOAuthCode finalizes sign-in through a server-side code
// exchange. Preferred over CompleteOAuthSignIn when the redirect carries
// only an authorization code: tokens never transit the URL.
func (c *Controller) HandleGoogleOAuthCode(ctx context.Context, code string) error {
	c.Dispatch(GoogleStart())

	result, err := c.api.ExchangeGoogleCode(ctx, code)
	if err != nil {
		c.Dispatch(GoogleFailure(ErrorMessage(err, msgGoogleFailed)))
		return err
	}

	if err := c.tokens.SetPair(result.Access, result.Refresh); err != nil {
		c.Dispatch(GoogleFailure(msgGoogleFailed))
		return err
	}

	user := result.User
	if user == nil {
		// Some backends return only the pair; fetch the user explicitly.
		user, err = c.api.CurrentUser(ctx)
		if err != nil {
			c.Dispatch(GoogleFailure(ErrorMessage(err, msgGoogleFailed)))
			return err
		}
	}

	c.Dispatch(GoogleSuccess(user))
	return nil
}

// GoogleAuthURL asks the backend for the Google authorization URL that
// starts the redirect flow.
func (c *Controller) GoogleAuthURL(ctx context.Context) (string, error) {
	return c.api.GoogleAuthURL(ctx)
}

// ClearError clears the last failure message. Pure state cleanup, no I/O.
func (c *Controller) ClearError() {
	c.Dispatch(ClearError())
}
