package signup

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// User facing feedback messages
const (
	MessagePasswordPolicy      = "Please choose a stronger and unique password."
	MessageRegistrationSuccess = "Registration successful!"
	MessageRegistrationFailed  = "Registration failed!"
	MessageGoogleLoginSuccess  = "Google login successful!"
	MessageGoogleLoginFailed   = "Google login failed!"
)

const (
	TextCodePasswordPolicy     = "PASSWORD_POLICY"
	TextCodeFormInvalid        = "FORM_INVALID"
	TextCodeNetworkError       = "NETWORK_ERROR"
	TextCodeRegistrationFailed = "REGISTRATION_FAILED"
	TextCodeGoogleLoginFailed  = "GOOGLE_LOGIN_FAILED"
	TextCodeSubmissionInFlight = "SUBMISSION_IN_FLIGHT"
	TextCodeTokenNotFound      = "TOKEN_NOT_FOUND"
	TextCodeTokenPersist       = "TOKEN_PERSIST_FAILED"
)

// ErrPasswordPolicy is returned when the password is weak or denylisted.
// It never reaches the network.
var ErrPasswordPolicy = goerrors.New(MessagePasswordPolicy, goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordPolicy).
	WithCode(goerrors.CodeBadRequest)

// ErrSubmissionInFlight is returned when a submit or google login is
// triggered while another request is still pending.
var ErrSubmissionInFlight = goerrors.New("a signup request is already in flight", goerrors.CategoryConflict).
	WithTextCode(TextCodeSubmissionInFlight).
	WithCode(goerrors.CodeConflict)

// ErrTokenNotFound is returned by token stores when nothing was saved yet
var ErrTokenNotFound = goerrors.New("session token not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNetwork marks requests that could not complete
var ErrNetwork = errors.New("network error")

// ErrServer marks non success responses
var ErrServer = errors.New("server error")

// IsNetworkError reports whether err comes from a failed round trip
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsServerError reports whether err comes from a non success response
func IsServerError(err error) bool {
	return errors.Is(err, ErrServer)
}

// IsPasswordPolicyError reports whether err is a password policy rejection
func IsPasswordPolicyError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodePasswordPolicy
}

// IsSubmissionInFlight reports whether err rejected an overlapping request
func IsSubmissionInFlight(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeSubmissionInFlight
}

// IsTokenNotFound reports whether err signals an empty token store
func IsTokenNotFound(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeTokenNotFound
}

// FeedbackMessage returns the text to show the user for err.
// Rich errors carry their message verbatim, anything else gets fallback.
func FeedbackMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if msg := strings.TrimSpace(rich.Message); msg != "" {
			return msg
		}
	}

	return fallback
}

func tokenNotFound(driver string) error {
	return ErrTokenNotFound.Clone().WithMetadata(map[string]any{
		"driver": driver,
	})
}
