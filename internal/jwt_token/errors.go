package jwttoken

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Reason classifies why a credential was rejected.
type Reason string

const (
	ReasonMalformed     Reason = "MALFORMED"
	ReasonExpired       Reason = "EXPIRED"
	ReasonBadSignature  Reason = "BAD_SIGNATURE"
	ReasonUnknownClaims Reason = "UNKNOWN_CLAIMS"
)

// AuthFailure is the only error Verify returns.
type AuthFailure struct {
	Reason Reason
	Err    error
}

func (e *AuthFailure) Error() string {
	if e.Err != nil {
		return "auth failure: " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "auth failure: " + string(e.Reason)
}

func (e *AuthFailure) Unwrap() error { return e.Err }

// Is matches another AuthFailure with the same reason.
func (e *AuthFailure) Is(target error) bool {
	var t *AuthFailure
	if !errors.As(target, &t) {
		return false
	}
	return e.Reason == t.Reason
}

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var af *AuthFailure
	if errors.As(err, &af) {
		return af.Reason, true
	}
	return "", false
}

func fail(reason Reason, err error) *AuthFailure {
	return &AuthFailure{Reason: reason, Err: err}
}

// classify maps jwt parser errors onto rejection reasons.
func classify(err error) *AuthFailure {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fail(ReasonExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fail(ReasonBadSignature, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fail(ReasonUnknownClaims, err)
	default:
		return fail(ReasonMalformed, err)
	}
}
