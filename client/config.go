// Package client implements the HTTP adapter over the Routinely identity
// API: it attaches the current access token to outgoing requests and layers
// the single-retry-on-401 refresh protocol on top of the token store.
package client

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config holds client options.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api".
	BaseURL string

	// Timeout bounds each request, refresh retries included.
	Timeout time.Duration

	// RefreshThreshold enables proactive refresh: when the access token is
	// within this window of expiry, the transport refreshes it before the
	// request goes out. Zero disables the proactive path; refresh is then
	// purely reactive.
	RefreshThreshold time.Duration

	// OnUnauthenticated runs after an unrecoverable refresh failure, once
	// both tokens have been purged. The host application typically routes
	// the user to its sign-in surface here.
	OnUnauthenticated func()

	// HTTPClient overrides the underlying client. Its transport is wrapped;
	// its other settings are preserved.
	HTTPClient *http.Client
}

// Validate runs validation rules.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RefreshThreshold, validation.Min(time.Duration(0))),
	)
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 30 * time.Second
}
