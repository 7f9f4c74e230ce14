package google

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-signup/social"
)

const defaultAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

// Config holds Google OAuth configuration. There is no client secret, the
// backend performs the code exchange.
type Config struct {
	ClientID    string
	CallbackURL string
	Scopes      []string

	AuthURL string
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

// Provider implements social.CodeProvider for Google.
type Provider struct {
	config Config
}

var _ social.CodeProvider = (*Provider)(nil)

// New creates a new Google provider.
func New(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}

	return &Provider{config: cfg}
}

// Name implements social.CodeProvider.
func (p *Provider) Name() string {
	return "google"
}

// RedirectURL implements social.CodeProvider.
func (p *Provider) RedirectURL() string {
	return p.config.CallbackURL
}

// AuthCodeURL implements social.CodeProvider.
func (p *Provider) AuthCodeURL(state string, opts ...social.AuthCodeOption) string {
	cfg := social.ApplyAuthCodeOptions(p.config.Scopes, opts...)
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.CallbackURL},
		"response_type": {"code"},
		"scope":         {strings.Join(scopes, " ")},
		"state":         {state},
	}

	if cfg.Prompt != "" {
		params.Set("prompt", cfg.Prompt)
	}

	if cfg.LoginHint != "" {
		params.Set("login_hint", cfg.LoginHint)
	}

	sep := "?"
	if strings.Contains(p.config.AuthURL, "?") {
		sep = "&"
	}

	return p.config.AuthURL + sep + params.Encode()
}
