package social

import "github.com/goliatone/go-errors"

const (
	TextCodeInvalidState   = "social_invalid_state"
	TextCodeStateExpired   = "social_state_expired"
	TextCodeCallbackDenied = "social_callback_denied"
	TextCodeMissingCode    = "social_missing_code"
	TextCodeCallbackClosed = "social_callback_closed"
)

// ErrInvalidState is returned when the OAuth state is invalid or tampered.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the OAuth state has expired.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrCallbackDenied is returned when the provider redirects back with an error,
// for instance when the user cancels the consent screen.
var ErrCallbackDenied = errors.New("authorization was denied", errors.CategoryAuth).
	WithTextCode(TextCodeCallbackDenied).
	WithCode(errors.CodeUnauthorized)

// ErrMissingCode is returned when the callback carries no authorization code.
var ErrMissingCode = errors.New("authorization code missing from callback", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCode).
	WithCode(errors.CodeBadRequest)

// ErrCallbackClosed is returned when waiting on a listener that was shut down.
var ErrCallbackClosed = errors.New("callback listener closed", errors.CategoryOperation).
	WithTextCode(TextCodeCallbackClosed)
