package social

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

//go:embed views/*.html
var viewsFS embed.FS

const callbackView = "callback"

// CallbackResult is what the provider redirect carried
type CallbackResult struct {
	Code  string
	State *OAuthState
	Err   error
}

// ListenerOption customizes a CallbackListener
type ListenerOption func(*CallbackListener)

// WithListenerLogger sets the listener logger
func WithListenerLogger(logger glog.Logger) ListenerOption {
	return func(l *CallbackListener) {
		l.logger = glog.Ensure(logger)
	}
}

// WithExpectedProvider rejects states issued for another provider
func WithExpectedProvider(name string) ListenerOption {
	return func(l *CallbackListener) {
		l.provider = name
	}
}

// WithListenAddr overrides the address taken from the redirect URL.
// Use "127.0.0.1:0" in tests.
func WithListenAddr(addr string) ListenerOption {
	return func(l *CallbackListener) {
		if addr != "" {
			l.addr = addr
		}
	}
}

// CallbackListener is a loopback HTTP server that receives the OAuth
// redirect and hands the authorization code to the caller exactly once.
type CallbackListener struct {
	addr     string
	path     string
	provider string

	states StateManager
	app    *fiber.App
	logger glog.Logger

	results   chan CallbackResult
	delivered atomic.Bool
	serveErr  chan error
	ln        net.Listener
}

// NewCallbackListener prepares a listener for redirectURL. Nothing is bound
// until Start is called.
func NewCallbackListener(redirectURL string, states StateManager, opts ...ListenerOption) (*CallbackListener, error) {
	if states == nil {
		return nil, goerrors.New("state manager is required", goerrors.CategoryBadInput)
	}

	u, err := url.Parse(redirectURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, goerrors.New("redirect url must be an absolute http url", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"redirect_url": redirectURL})
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	addr := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		addr = net.JoinHostPort(u.Hostname(), port)
	}

	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load callback views")
	}

	l := &CallbackListener{
		addr:     addr,
		path:     path,
		states:   states,
		logger:   glog.Nop(),
		results:  make(chan CallbackResult, 1),
		serveErr: make(chan error, 1),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	l.app = fiber.New(fiber.Config{
		Views:                 django.NewFileSystem(http.FS(views), ".html"),
		DisableStartupMessage: true,
	})
	l.app.Get(l.path, l.handleCallback)

	return l, nil
}

// App exposes the underlying fiber app
func (l *CallbackListener) App() *fiber.App {
	return l.app
}

// Path returns the route the redirect is served on
func (l *CallbackListener) Path() string {
	return l.path
}

// Addr returns the bound address once started, the configured one otherwise
func (l *CallbackListener) Addr() string {
	if l.ln != nil {
		return l.ln.Addr().String()
	}
	return l.addr
}

// Start binds the listener and serves in the background
func (l *CallbackListener) Start() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to bind callback listener").
			WithMetadata(map[string]any{"addr": l.addr})
	}
	l.ln = ln

	l.logger.Debug("oauth callback listener started", "addr", ln.Addr().String(), "path", l.path)

	go func() {
		l.serveErr <- l.app.Listener(ln)
	}()

	return nil
}

// Wait blocks until the redirect arrives, ctx is done, or the server stops
func (l *CallbackListener) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-l.results:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Code, nil
	case <-ctx.Done():
		return "", goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "stopped waiting for oauth callback")
	case err := <-l.serveErr:
		if err == nil {
			return "", ErrCallbackClosed
		}
		return "", goerrors.Wrap(err, goerrors.CategoryExternal, "oauth callback server stopped")
	}
}

// Shutdown stops the server
func (l *CallbackListener) Shutdown(ctx context.Context) error {
	if l.ln == nil {
		return nil
	}
	err := l.app.ShutdownWithContext(ctx)
	if cerr := l.ln.Close(); cerr != nil && err == nil && !errors.Is(cerr, net.ErrClosed) {
		err = cerr
	}
	return err
}

func (l *CallbackListener) handleCallback(c *fiber.Ctx) error {
	state, err := l.states.Decode(c.Query("state"))
	if err == nil && l.provider != "" && state.Provider != l.provider {
		err = ErrInvalidState
	}
	if err != nil {
		l.logger.Warn("oauth callback with invalid state", "error", err)
		return l.render(c, fiber.StatusBadRequest, false, "Sign-in failed", "The sign-in request is invalid or has expired. Please start again.")
	}

	if reason := c.Query("error"); reason != "" {
		denied := ErrCallbackDenied.Clone().WithMetadata(map[string]any{
			"error":             strings.Clone(reason),
			"error_description": strings.Clone(c.Query("error_description")),
		})
		l.deliver(CallbackResult{State: state, Err: denied})
		return l.render(c, fiber.StatusUnauthorized, false, "Sign-in cancelled", "Google did not authorize the request.")
	}

	// fiber reuses the request buffer once the handler returns
	code := strings.Clone(c.Query("code"))
	if code == "" {
		l.deliver(CallbackResult{State: state, Err: ErrMissingCode})
		return l.render(c, fiber.StatusBadRequest, false, "Sign-in failed", "No authorization code was received.")
	}

	if !l.deliver(CallbackResult{Code: code, State: state}) {
		return l.render(c, fiber.StatusConflict, false, "Already signed in", "This sign-in request was already completed.")
	}

	l.logger.Info("oauth callback received", "provider", state.Provider)
	return l.render(c, fiber.StatusOK, true, "Sign-in complete", "Your Google account was authorized.")
}

// deliver hands res to Wait, only the first call wins
func (l *CallbackListener) deliver(res CallbackResult) bool {
	if !l.delivered.CompareAndSwap(false, true) {
		return false
	}
	l.results <- res
	return true
}

func (l *CallbackListener) render(c *fiber.Ctx, status int, success bool, title, message string) error {
	return c.Status(status).Render(callbackView, fiber.Map{
		"success": success,
		"title":   title,
		"message": message,
	})
}
