package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/routinely/authkit"
	"github.com/routinely/authkit/token"
)

// Identity API endpoints, relative to the configured base URL.
const (
	pathLogin          = "/auth/login/"
	pathRegister       = "/auth/register/"
	pathLogout         = "/auth/logout/"
	pathRefresh        = "/auth/token/refresh/"
	pathMe             = "/auth/me/"
	pathGoogle         = "/auth/google/"
	pathGoogleCallback = "/auth/google/callback/"
	pathSocialAccounts = "/auth/social-accounts/"
	pathUser           = "/auth/user/"
	pathProfile        = "/auth/profile/"
	pathChangePassword = "/auth/change-password/"
)

// Client talks to the remote identity API. All requests flow through the
// intercepting transport, so bearer attachment and the 401 refresh protocol
// apply uniformly; the refresh exchange itself uses a bare client to avoid
// re-entering the interceptor.
type Client struct {
	baseURL string
	http    *http.Client
	bare    *http.Client
	tokens  token.Store
	logger  authkit.Logger
	debug   bool
}

var _ authkit.API = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithClientLogger overrides the client logger.
func WithClientLogger(logger authkit.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug dumps response payloads to stdout.
func WithDebug() Option {
	return func(c *Client) {
		c.debug = true
	}
}

// New creates an identity API client backed by the given token store.
func New(cfg Config, tokens token.Store, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid client configuration")
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		logger:  authkit.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	baseTransport := base.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}

	c.bare = &http.Client{
		Transport: baseTransport,
		Timeout:   cfg.timeout(),
	}

	intercepted := *base
	intercepted.Timeout = cfg.timeout()
	intercepted.Transport = &transport{
		base:              baseTransport,
		tokens:            tokens,
		refresh:           c.exchangeRefreshToken,
		onUnauthenticated: cfg.OnUnauthenticated,
		logger:            c.logger,
		threshold:         cfg.RefreshThreshold,
	}
	c.http = &intercepted

	return c, nil
}

// loginEnvelope tolerates both token layouts the backend has shipped:
// top-level access/refresh fields, or a nested tokens object.
type loginEnvelope struct {
	authkit.User
	Access  string             `json:"access"`
	Refresh string             `json:"refresh"`
	Tokens  *authkit.TokenPair `json:"tokens"`
}

func (e *loginEnvelope) pair() (string, string) {
	if e.Access != "" {
		return e.Access, e.Refresh
	}
	if e.Tokens != nil {
		return e.Tokens.Access, e.Tokens.Refresh
	}
	return "", ""
}

// Login authenticates with credentials and stores the issued pair before
// returning the user record.
func (c *Client) Login(ctx context.Context, email, password string) (*authkit.User, error) {
	payload := map[string]string{"email": email, "password": password}

	envelope := new(loginEnvelope)
	if err := c.doJSON(ctx, c.http, http.MethodPost, pathLogin, payload, envelope); err != nil {
		return nil, err
	}

	if access, refresh := envelope.pair(); access != "" {
		if err := c.tokens.SetPair(access, refresh); err != nil {
			return nil, err
		}
	}

	user := envelope.User
	return &user, nil
}

// Register creates a new account. No tokens are issued; the caller signs in
// afterwards.
func (c *Client) Register(ctx context.Context, data authkit.RegistrationData) (*authkit.User, error) {
	user := new(authkit.User)
	if err := c.doJSON(ctx, c.http, http.MethodPost, pathRegister, data, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout invalidates the session server-side and clears the stored pair.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, c.http, http.MethodPost, pathLogout, nil, nil); err != nil {
		return err
	}
	return c.tokens.Clear()
}

// RefreshTokens exchanges a refresh token for a new pair. It bypasses the
// interceptor: a 401 here must not recurse into another refresh.
func (c *Client) RefreshTokens(ctx context.Context, refresh string) (authkit.TokenPair, error) {
	payload := map[string]string{"refresh": refresh}

	var pair authkit.TokenPair
	if err := c.doJSON(ctx, c.bare, http.MethodPost, pathRefresh, payload, &pair); err != nil {
		return authkit.TokenPair{}, err
	}
	return pair, nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context, refresh string) (authkit.TokenPair, error) {
	return c.RefreshTokens(ctx, refresh)
}

// CurrentUser fetches the authenticated user record.
func (c *Client) CurrentUser(ctx context.Context) (*authkit.User, error) {
	user := new(authkit.User)
	if err := c.doJSON(ctx, c.http, http.MethodGet, pathMe, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GoogleAuthURL asks the backend for the Google authorization URL.
func (c *Client) GoogleAuthURL(ctx context.Context) (string, error) {
	var out struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := c.doJSON(ctx, c.http, http.MethodGet, pathGoogle, nil, &out); err != nil {
		return "", err
	}
	return out.AuthorizationURL, nil
}

// ExchangeGoogleCode trades an authorization code for a token pair and the
// signed-in user through the backend callback endpoint.
func (c *Client) ExchangeGoogleCode(ctx context.Context, code string) (*authkit.OAuthTokens, error) {
	payload := map[string]string{"code": code}

	out := new(authkit.OAuthTokens)
	if err := c.doJSON(ctx, c.http, http.MethodPost, pathGoogleCallback, payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SocialAccounts lists the user's linked social identities.
func (c *Client) SocialAccounts(ctx context.Context) ([]authkit.SocialAccount, error) {
	var out struct {
		SocialAccounts []authkit.SocialAccount `json:"social_accounts"`
	}
	if err := c.doJSON(ctx, c.http, http.MethodGet, pathSocialAccounts, nil, &out); err != nil {
		return nil, err
	}
	return out.SocialAccounts, nil
}

// UnlinkSocialAccount removes a linked social identity.
func (c *Client) UnlinkSocialAccount(ctx context.Context, accountID int) error {
	path := fmt.Sprintf("%s%d/unlink/", pathSocialAccounts, accountID)
	return c.doJSON(ctx, c.http, http.MethodDelete, path, nil, nil)
}

// UserDetails fetches the raw account record.
func (c *Client) UserDetails(ctx context.Context) (*authkit.User, error) {
	user := new(authkit.User)
	if err := c.doJSON(ctx, c.http, http.MethodGet, pathUser, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial account update. The phone field is
// normalized to E.164 when it parses; anything else passes through
// untouched for the server to judge.
func (c *Client) UpdateUser(ctx context.Context, data authkit.UserData) (*authkit.User, error) {
	data.Phone = normalizePhone(data.Phone)

	user := new(authkit.User)
	if err := c.doJSON(ctx, c.http, http.MethodPatch, pathUser, data, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies a partial profile update as multipart form data:
// the avatar as a file part, role ids as indexed fields, booleans as their
// string form.
func (c *Client) UpdateProfile(ctx context.Context, data authkit.ProfileData) (*authkit.UserProfile, error) {
	body, contentType, err := encodeProfileForm(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+pathProfile, bytes.NewReader(body))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build profile request")
	}
	req.Header.Set("Content-Type", contentType)

	profile := new(authkit.UserProfile)
	if err := c.send(c.http, req, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	payload := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return c.doJSON(ctx, c.http, http.MethodPost, pathChangePassword, payload, nil)
}

func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(hc, req, out)
}

func (c *Client) send(hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			// The transport already produced a structured error (e.g. a
			// failed refresh); keep it intact.
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "identity API unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read response body")
	}

	if c.debug {
		fmt.Printf("======= %s %s (%d) =======\n", req.Method, req.URL.Path, resp.StatusCode)
		fmt.Println(print.MaybePrettyJSON(json.RawMessage(payload)))
		fmt.Println("==========================")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(req, resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode response body")
	}

	return nil
}

// apiError mirrors the structured error bodies the identity API produces.
type apiError struct {
	Detail         string   `json:"detail"`
	Message        string   `json:"message"`
	NonFieldErrors []string `json:"non_field_errors"`
}

func (e apiError) detail() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.NonFieldErrors) > 0 {
		return e.NonFieldErrors[0]
	}
	return ""
}

func (c *Client) responseError(req *http.Request, status int, body []byte) error {
	var parsed apiError
	_ = json.Unmarshal(body, &parsed)
	detail := parsed.detail()

	category := goerrors.CategoryInternal
	code := goerrors.CodeInternal
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = goerrors.CategoryAuth
		code = goerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		category = goerrors.CategoryNotFound
		code = goerrors.CodeNotFound
	case status >= 400 && status < 500:
		category = goerrors.CategoryValidation
		code = goerrors.CodeBadRequest
	}

	message := detail
	if message == "" {
		message = fmt.Sprintf("identity API returned status %d", status)
	}

	meta := map[string]any{
		"status": status,
		"method": req.Method,
		"path":   req.URL.Path,
	}
	if detail != "" {
		meta[authkit.DetailKey] = detail
	}

	return goerrors.New(message, category).
		WithCode(code).
		WithTextCode(authkit.TextCodeRequestFailed).
		WithMetadata(meta)
}
