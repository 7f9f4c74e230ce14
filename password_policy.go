package signup

import (
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Strength is the length based password classification
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthModerate
	StrengthStrong
)

const (
	// MinModerateLength is the shortest password rated moderate
	MinModerateLength = 6
	// MinStrongLength is the shortest password rated strong
	MinStrongLength = 12
)

var commonPasswords = map[string]struct{}{
	"123456":    {},
	"password":  {},
	"123456789": {},
	"12345678":  {},
	"12345":     {},
}

func (s Strength) String() string {
	switch s {
	case StrengthModerate:
		return "moderate"
	case StrengthStrong:
		return "strong"
	default:
		return "weak"
	}
}

// EvaluateStrength classifies password by its length in characters only.
func EvaluateStrength(password string) Strength {
	n := utf8.RuneCountInString(password)
	switch {
	case n >= MinStrongLength:
		return StrengthStrong
	case n >= MinModerateLength:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// IsUnique returns false only for exact matches of the denylist
func IsUnique(password string) bool {
	_, found := commonPasswords[password]
	return !found
}

// AcceptablePassword reports whether password passes the policy
func AcceptablePassword(password string) bool {
	return EvaluateStrength(password) != StrengthWeak && IsUnique(password)
}

// PasswordRule is an ozzo rule enforcing AcceptablePassword
var PasswordRule = validation.By(func(value any) error {
	password, _ := value.(string)
	if AcceptablePassword(password) {
		return nil
	}
	return validation.NewError("validation_password_policy", MessagePasswordPolicy)
})
