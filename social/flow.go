package social

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

// Opener presents the consent URL to the user, by opening a browser or
// printing it.
type Opener func(authURL string) error

// FlowOption customizes a CodeFlow
type FlowOption func(*CodeFlow)

func WithFlowLogger(logger glog.Logger) FlowOption {
	return func(f *CodeFlow) {
		f.logger = glog.Ensure(logger)
	}
}

// WithFlowAuthCodeOptions are applied to every consent URL
func WithFlowAuthCodeOptions(opts ...AuthCodeOption) FlowOption {
	return func(f *CodeFlow) {
		f.authOpts = append(f.authOpts, opts...)
	}
}

// WithFlowListenerOptions are passed to the callback listener
func WithFlowListenerOptions(opts ...ListenerOption) FlowOption {
	return func(f *CodeFlow) {
		f.listenerOpts = append(f.listenerOpts, opts...)
	}
}

// CodeFlow obtains an authorization code through the provider consent
// screen and a loopback redirect.
type CodeFlow struct {
	provider     CodeProvider
	states       StateManager
	logger       glog.Logger
	authOpts     []AuthCodeOption
	listenerOpts []ListenerOption
}

func NewCodeFlow(provider CodeProvider, states StateManager, opts ...FlowOption) *CodeFlow {
	f := &CodeFlow{
		provider: provider,
		states:   states,
		logger:   glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// AuthorizationURL issues a fresh state and returns the consent URL
func (f *CodeFlow) AuthorizationURL() (string, error) {
	if f.provider == nil || f.states == nil {
		return "", goerrors.New("code flow requires a provider and a state manager", goerrors.CategoryBadInput)
	}

	state, err := f.states.Encode(&OAuthState{
		Provider:    f.provider.Name(),
		RedirectURL: f.provider.RedirectURL(),
	})
	if err != nil {
		return "", err
	}

	return f.provider.AuthCodeURL(state, f.authOpts...), nil
}

// Run starts the callback listener, presents the consent URL with open, and
// waits for the authorization code.
func (f *CodeFlow) Run(ctx context.Context, open Opener) (string, error) {
	if open == nil {
		return "", goerrors.New("an opener is required", goerrors.CategoryBadInput)
	}

	authURL, err := f.AuthorizationURL()
	if err != nil {
		return "", err
	}

	opts := append([]ListenerOption{
		WithExpectedProvider(f.provider.Name()),
		WithListenerLogger(f.logger),
	}, f.listenerOpts...)

	listener, err := NewCallbackListener(f.provider.RedirectURL(), f.states, opts...)
	if err != nil {
		return "", err
	}

	if err := listener.Start(); err != nil {
		return "", err
	}
	defer func() {
		if err := listener.Shutdown(context.Background()); err != nil {
			f.logger.Warn("oauth callback listener shutdown failed", "error", err)
		}
	}()

	if err := open(authURL); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryExternal, "failed to present authorization url")
	}

	code, err := listener.Wait(ctx)
	if err != nil {
		f.logger.Warn("oauth code flow failed", "provider", f.provider.Name(), "error", err)
		return "", err
	}

	return code, nil
}
