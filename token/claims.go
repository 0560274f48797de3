package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The predicates below are advisory: the refresh protocol is reactive
// (retry on 401), but callers may opt into proactive refresh by consulting
// ShouldRefresh before a request goes out. They decode the token without
// verifying its signature; the server remains the authority.

var unverifiedParser = jwt.NewParser()

func expiry(tok string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// IsExpired reports whether the token's expiry claim is in the past. A token
// that cannot be decoded is treated as expired.
func IsExpired(tok string) bool {
	exp, ok := expiry(tok)
	if !ok {
		return true
	}
	return !time.Now().Before(exp)
}

// ShouldRefresh reports whether the token is within threshold of expiry.
// An empty or undecodable token always wants a refresh.
func ShouldRefresh(tok string, threshold time.Duration) bool {
	if tok == "" {
		return true
	}

	exp, ok := expiry(tok)
	if !ok {
		return true
	}

	return !time.Now().Before(exp.Add(-threshold))
}

// RemainingLifetime returns the time until the token expires, or zero when
// the token is expired or undecodable.
func RemainingLifetime(tok string) time.Duration {
	exp, ok := expiry(tok)
	if !ok {
		return 0
	}

	remaining := time.Until(exp)
	if remaining < 0 {
		return 0
	}
	return remaining
}
