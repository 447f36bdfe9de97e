package session

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeCredentialsRejected = "CREDENTIALS_REJECTED"
	textCodeNetworkUnavailable  = "NETWORK_UNAVAILABLE"
	textCodeSessionExpired      = "SESSION_EXPIRED"
	textCodeCorruptLocalState   = "CORRUPT_LOCAL_STATE"
	textCodeInvalidCredentials  = "INVALID_CREDENTIALS_PAYLOAD"
)

// ErrCredentialsRejected is returned when the backend rejects a login or
// relogin. Business failure, surfaced to the UI, never fatal.
var ErrCredentialsRejected = goerrors.New("credentials rejected", goerrors.CategoryAuth).
	WithTextCode(textCodeCredentialsRejected).
	WithCode(goerrors.CodeUnauthorized)

// ErrNetworkUnavailable is returned when the transport never reached the
// backend. Retried transparently for refresh, surfaced for explicit login.
var ErrNetworkUnavailable = goerrors.New("network unavailable", goerrors.CategoryOperation).
	WithTextCode(textCodeNetworkUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrSessionExpired marks a refresh window that has fully elapsed. It drives
// forced re-authentication through bus events rather than call-site errors.
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrCorruptLocalState marks an unparseable persisted record. It is logged
// and treated as absence; callers never see it.
var ErrCorruptLocalState = goerrors.New("corrupt local session state", goerrors.CategoryBadInput).
	WithTextCode(textCodeCorruptLocalState).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentialsPayload is returned for a payload that fails local
// validation before any network call is made.
var ErrInvalidCredentialsPayload = goerrors.New("invalid credentials payload", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeBadRequest)

// IsCredentialsRejected checks for the expected "wrong password" outcome.
func IsCredentialsRejected(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeCredentialsRejected
	}
	return false
}

// IsNetworkUnavailable checks for transport-level failures.
func IsNetworkUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeNetworkUnavailable
	}
	return false
}

// IsSessionExpired checks for an elapsed refresh window.
func IsSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeSessionExpired
	}
	return false
}
