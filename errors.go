package authkit

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeNotAuthenticated = "SESSION_NOT_AUTHENTICATED"
	TextCodeRequestFailed    = "IDENTITY_REQUEST_FAILED"
	TextCodeRefreshFailed    = "TOKEN_REFRESH_FAILED"
	TextCodeMissingTokens    = "MISSING_AUTH_CREDENTIALS"
)

// ErrNotAuthenticated is returned when an operation requires a live session.
var ErrNotAuthenticated = goerrors.New("not authenticated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshFailed marks a failed refresh exchange. It is fatal to the
// session: the adapter purges both tokens before surfacing it.
var ErrRefreshFailed = goerrors.New("token refresh failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeRefreshFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingCredentials is returned by the OAuth completion flow when the
// redirect carried neither an authorization code nor tokens.
var ErrMissingCredentials = goerrors.New("missing authorization code or tokens", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingTokens).
	WithCode(goerrors.CodeBadRequest)

// DetailKey is the metadata slot the client uses to carry the server's
// structured `detail` message on failed responses.
const DetailKey = "detail"

// WithDetail attaches a server-supplied detail message to a rich error so
// ErrorMessage can surface it later.
func WithDetail(err *goerrors.Error, detail string) *goerrors.Error {
	if err == nil || detail == "" {
		return err
	}
	return err.WithMetadata(map[string]any{DetailKey: detail})
}

// ErrorMessage implements the extraction policy for user-facing messages:
// prefer the structured `detail` the server returned, fall back to the
// fixed per-operation default.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Metadata != nil {
		if detail, ok := richErr.Metadata[DetailKey].(string); ok && detail != "" {
			return detail
		}
	}

	return fallback
}
