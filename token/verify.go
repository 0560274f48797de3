package token

import (
	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeTokenInvalid = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenExpired = "TOKEN_EXPIRED"
)

// ErrTokenInvalid is returned when a token fails signature verification.
var ErrTokenInvalid = goerrors.New("token signature invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a verified token is past its expiry.
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// Verifier checks token signatures against the identity server's JWKS.
// The redirect completion flow accepts tokens delivered as URL query
// parameters; verifying them locally rejects forged redirects before the
// pair is ever persisted.
type Verifier struct {
	keyFunc jwt.Keyfunc
}

// NewVerifier fetches the JWK Set from jwksURL and keeps it refreshed in
// the background.
func NewVerifier(jwksURL string) (*Verifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load JWK Set")
	}

	return &Verifier{keyFunc: jwks.Keyfunc}, nil
}

// NewVerifierWithKeyfunc builds a verifier from a caller-supplied key
// function. Useful for tests and for servers that publish static keys.
func NewVerifierWithKeyfunc(fn jwt.Keyfunc) *Verifier {
	return &Verifier{keyFunc: fn}
}

// Verify parses and validates the token signature and registered claims.
func (v *Verifier) Verify(tok string) error {
	parsed, err := jwt.Parse(tok, v.keyFunc)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		clone := ErrTokenInvalid.Clone()
		clone.Source = err
		return clone
	}

	if !parsed.Valid {
		return ErrTokenInvalid
	}

	return nil
}
