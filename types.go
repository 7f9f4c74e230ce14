package signup

import (
	"context"
	"time"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the structured logger used across the package.
type Logger = glog.Logger

// LoggerProvider hands out named loggers.
type LoggerProvider = glog.LoggerProvider

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetTimeout() time.Duration
	GetWithCredentials() bool
	GetGoogleClientID() string
	GetGoogleRedirectURL() string
}

// TokenStore persists the session token under a single fixed key.
// Save always overwrites, Delete is idempotent.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Registrar talks to the backend auth endpoints
type Registrar interface {
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
	GoogleLogin(ctx context.Context, code string) (*Session, error)
}

func ensureLogger(logger Logger) Logger {
	return glog.Ensure(logger)
}
