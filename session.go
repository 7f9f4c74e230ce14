package signup

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the result of a successful register or google login.
// Only Token is guaranteed, the rest is filled when Token is a JWT.
type Session struct {
	Token     string         `json:"token"`
	Subject   string         `json:"subject,omitempty"`
	Email     string         `json:"email,omitempty"`
	Issuer    string         `json:"issuer,omitempty"`
	IssuedAt  *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func (s *Session) GetToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// Expired reports whether the session carries an expiration before now.
// Sessions without an expiration never expire.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// SessionFromToken decodes token claims without verifying the signature.
// The backend owns verification; opaque tokens yield a Session with only Token set.
func SessionFromToken(token string) *Session {
	session := &Session{Token: token}
	if token == "" {
		return session
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return session
	}

	if sub, err := claims.GetSubject(); err == nil {
		session.Subject = sub
	}

	if iss, err := claims.GetIssuer(); err == nil {
		session.Issuer = iss
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		session.IssuedAt = &t
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		session.ExpiresAt = &t
	}

	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}

	if data, ok := claims["dat"].(map[string]any); ok {
		session.Data = data
	}

	return session
}
