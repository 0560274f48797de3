// Package callback finishes OAuth redirect flows. The provider sends the
// browser back with either issued tokens or an authorization code in the
// query string; the handler settles the session exactly once and tells the
// caller where to send the user next.
package callback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/routinely/authkit"
)

// Status is the settled outcome of a redirect callback.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const (
	msgCompleting     = "Completing sign-in..."
	msgSuccess        = "Sign-in successful! Redirecting..."
	msgMissingTokens  = "Missing authorization code or tokens"
	msgCompleteFailed = "Failed to complete sign-in"
)

// Params are the query parameters a provider redirect may carry.
type Params struct {
	Code         string
	Error        string
	AccessToken  string
	RefreshToken string
}

// Result is what the caller renders: the outcome, a user-facing message,
// and where to navigate after the configured delay.
type Result struct {
	Status        Status
	Message       string
	RedirectTo    string
	RedirectAfter time.Duration
}

// Completer is the session surface the handler drives. *authkit.Controller
// satisfies it.
type Completer interface {
	CompleteOAuthSignIn(ctx context.Context, access, refresh string) error
	HandleGoogleOAuthCode(ctx context.Context, code string) error
}

// Config controls navigation targets and delays.
type Config struct {
	LoginRoute   string
	LandingRoute string
	SuccessDelay time.Duration
	ErrorDelay   time.Duration
}

func (c Config) withDefaults() Config {
	if c.LoginRoute == "" {
		c.LoginRoute = "/login"
	}
	if c.LandingRoute == "" {
		c.LandingRoute = "/dashboard"
	}
	if c.SuccessDelay <= 0 {
		c.SuccessDelay = 1500 * time.Millisecond
	}
	if c.ErrorDelay <= 0 {
		c.ErrorDelay = 3 * time.Second
	}
	return c
}

// Handler settles a single redirect callback. It is one-shot: the first
// Process call does the work, later calls wait for it and observe the same
// settled result.
type Handler struct {
	completer Completer
	config    Config
	logger    authkit.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
	result  Result
}

// HandlerOption customizes handler construction.
type HandlerOption func(*Handler)

// WithHandlerLogger overrides the handler logger.
func WithHandlerLogger(logger authkit.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a one-shot callback handler.
func NewHandler(completer Completer, cfg Config, opts ...HandlerOption) *Handler {
	h := &Handler{
		completer: completer,
		config:    cfg.withDefaults(),
		logger:    authkit.DefaultLogger(),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

// Process settles the callback. The first caller runs the completion; any
// concurrent or repeated caller blocks until it settles and gets the same
// result. A canceled context returns early without disturbing the outcome.
func (h *Handler) Process(ctx context.Context, params Params) (Result, error) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		select {
		case <-h.done:
			return h.snapshot(), nil
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	h.started = true
	h.mu.Unlock()

	result := h.settle(ctx, params)

	h.mu.Lock()
	h.result = result
	h.mu.Unlock()
	close(h.done)

	return result, nil
}

func (h *Handler) snapshot() Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

func (h *Handler) settle(ctx context.Context, params Params) Result {
	if params.Error != "" {
		h.logger.Warn("oauth callback: provider returned error: %s", params.Error)
		return h.failure(fmt.Sprintf("Authentication failed: %s", params.Error))
	}

	if params.Code == "" && params.AccessToken == "" {
		h.logger.Warn("oauth callback: redirect carried no code and no tokens")
		return h.failure(msgMissingTokens)
	}

	if params.AccessToken != "" {
		if err := h.completer.CompleteOAuthSignIn(ctx, params.AccessToken, params.RefreshToken); err != nil {
			return h.failure(authkit.ErrorMessage(err, msgCompleteFailed))
		}
		return h.success()
	}

	if err := h.completer.HandleGoogleOAuthCode(ctx, params.Code); err != nil {
		return h.failure(authkit.ErrorMessage(err, msgCompleteFailed))
	}
	return h.success()
}

func (h *Handler) success() Result {
	return Result{
		Status:        StatusSuccess,
		Message:       msgSuccess,
		RedirectTo:    h.config.LandingRoute,
		RedirectAfter: h.config.SuccessDelay,
	}
}

func (h *Handler) failure(message string) Result {
	return Result{
		Status:        StatusError,
		Message:       message,
		RedirectTo:    h.config.LoginRoute,
		RedirectAfter: h.config.ErrorDelay,
	}
}
