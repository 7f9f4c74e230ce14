package social

// CodeProvider builds the consent screen URL for an authorization code flow.
// Exchanging the code is left to the backend.
type CodeProvider interface {
	// Name returns the provider identifier (e.g., "google").
	Name() string

	// AuthCodeURL returns the URL to send the user to.
	// The state parameter should be included for CSRF protection.
	AuthCodeURL(state string, opts ...AuthCodeOption) string

	// RedirectURL returns where the provider sends the user back to.
	RedirectURL() string
}

// AuthCodeOption configures the authorization URL.
type AuthCodeOption func(*authCodeConfig)

// WithScopes sets additional scopes for the auth request.
func WithScopes(scopes ...string) AuthCodeOption {
	return func(c *authCodeConfig) {
		c.scopes = append(c.scopes, scopes...)
	}
}

// WithPrompt sets the prompt parameter (e.g., "consent", "select_account").
func WithPrompt(prompt string) AuthCodeOption {
	return func(c *authCodeConfig) {
		c.prompt = prompt
	}
}

// WithLoginHint pre fills the account chooser with an email address
func WithLoginHint(email string) AuthCodeOption {
	return func(c *authCodeConfig) {
		c.loginHint = email
	}
}

type authCodeConfig struct {
	scopes    []string
	prompt    string
	loginHint string
}

// AuthCodeConfig represents applied auth code options in a provider-friendly form.
type AuthCodeConfig struct {
	Scopes    []string
	Prompt    string
	LoginHint string
}

// ApplyAuthCodeOptions applies AuthCodeOption values and returns a normalized config.
// Duplicate scopes are dropped, first occurrence wins.
func ApplyAuthCodeOptions(scopes []string, opts ...AuthCodeOption) AuthCodeConfig {
	cfg := authCodeConfig{scopes: append([]string(nil), scopes...)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	seen := make(map[string]struct{}, len(cfg.scopes))
	unique := make([]string, 0, len(cfg.scopes))
	for _, s := range cfg.scopes {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}

	return AuthCodeConfig{
		Scopes:    unique,
		Prompt:    cfg.prompt,
		LoginHint: cfg.loginHint,
	}
}
