package client

import (
	"context"
	"io"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/routinely/authkit"
	"github.com/routinely/authkit/token"
)

type retriedKey struct{}

// markRetried flags a request context so the 401 interception runs at most
// once per original request.
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func wasRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey{}).(bool)
	return retried
}

// transport intercepts every outgoing request to attach the bearer token,
// and every 401 response to run the refresh protocol:
//
//  1. no refresh token stored: the original 401 propagates.
//  2. exchange the refresh token; concurrent 401s share one in-flight
//     exchange through the singleflight group.
//  3. on success the new pair is stored before the request is resubmitted,
//     exactly once, with the new bearer.
//  4. on failure both tokens are purged and the unauthenticated hook fires.
type transport struct {
	base              http.RoundTripper
	tokens            token.Store
	refresh           func(ctx context.Context, refreshToken string) (authkit.TokenPair, error)
	onUnauthenticated func()
	logger            authkit.Logger
	threshold         time.Duration

	group singleflight.Group
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if t.threshold > 0 {
		if access, ok := t.tokens.Get(token.SlotAccess); ok && token.ShouldRefresh(access, t.threshold) {
			// Best effort: a failed proactive refresh falls back to the
			// reactive path below.
			if err := t.runRefresh(ctx); err != nil {
				t.logger.Debug("proactive refresh failed: %v", err)
			}
		}
	}

	req = req.Clone(ctx)
	t.decorate(req)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || wasRetried(ctx) {
		return resp, nil
	}

	if _, ok := t.tokens.Get(token.SlotRefresh); !ok {
		// Nothing to exchange: the original 401 propagates.
		return resp, nil
	}

	drainBody(resp)

	if err := t.runRefresh(ctx); err != nil {
		if cerr := t.tokens.Clear(); cerr != nil {
			t.logger.Warn("clearing tokens after failed refresh: %v", cerr)
		}
		if t.onUnauthenticated != nil {
			t.onUnauthenticated()
		}
		return nil, err
	}

	retry := req.Clone(markRetried(ctx))
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, goerrors.Wrap(berr, goerrors.CategoryInternal, "failed to rewind request body for retry")
		}
		retry.Body = body
	}
	t.decorate(retry)

	return t.base.RoundTrip(retry)
}

// runRefresh collapses concurrent refresh attempts into one exchange. The
// first caller performs it; everyone else waits on the shared result.
func (t *transport) runRefresh(ctx context.Context) error {
	_, err, _ := t.group.Do("refresh", func() (any, error) {
		refresh, ok := t.tokens.Get(token.SlotRefresh)
		if !ok {
			return nil, authkit.ErrRefreshFailed
		}

		pair, err := t.refresh(ctx, refresh)
		if err != nil {
			clone := authkit.ErrRefreshFailed.Clone()
			clone.Source = err
			return nil, clone
		}

		if err := t.tokens.SetPair(pair.Access, pair.Refresh); err != nil {
			return nil, err
		}

		return nil, nil
	})
	return err
}

func (t *transport) decorate(req *http.Request) {
	if access, ok := t.tokens.Get(token.SlotAccess); ok {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
}

func drainBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
