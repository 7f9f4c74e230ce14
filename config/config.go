package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes environment overrides, nested keys use a double underscore:
// SIGNUP_API__BASE_URL sets api.base_url.
const EnvPrefix = "SIGNUP_"

// Storage drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// DefaultGoogleClientID is the OAuth client the signup page ships with
const DefaultGoogleClientID = "66114075710-bl34hvbchkodkb38bdiol32g4npc658v.apps.googleusercontent.com"

// Config is the full client configuration
type Config struct {
	API     APIConfig     `koanf:"api"`
	Google  GoogleConfig  `koanf:"google"`
	Storage StorageConfig `koanf:"storage"`
	Log     LogConfig     `koanf:"log"`
}

type APIConfig struct {
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	WithCredentials bool          `koanf:"with_credentials"`
}

type GoogleConfig struct {
	ClientID    string   `koanf:"client_id"`
	RedirectURL string   `koanf:"redirect_url"`
	Scopes      []string `koanf:"scopes"`
}

type StorageConfig struct {
	Driver string      `koanf:"driver"` // memory, sqlite, redis
	DSN    string      `koanf:"dsn"`
	Redis  RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Key      string `koanf:"key"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // pretty, json
}

// Defaults returns the configuration used when nothing else is set
func Defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5001/api",
			Timeout: 10 * time.Second,
		},
		Google: GoogleConfig{
			ClientID:    DefaultGoogleClientID,
			RedirectURL: "http://localhost:8765/auth/google/callback",
			Scopes:      []string{"openid", "email", "profile"},
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			DSN:    DefaultDSN(),
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "signup:token",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// DefaultDSN points the sqlite token store at the user config directory so
// the token survives restarts regardless of the working directory. It falls
// back to a file in the working directory when no config directory exists.
func DefaultDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "file:signup.db"
	}
	return "file:" + filepath.Join(dir, "signup", "signup.db")
}

// Option customizes Load
type Option func(*loader)

type loader struct {
	envFiles []string
	environ  bool
}

// WithEnvFiles sets the dotenv files loaded before reading the environment.
// Missing files are skipped.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) {
		l.envFiles = paths
	}
}

// WithoutEnvironment skips environment overrides
func WithoutEnvironment() Option {
	return func(l *loader) {
		l.environ = false
	}
}

// Load reads defaults, then the yaml file at path, then the environment.
// An empty path or a missing file only uses defaults and the environment.
func Load(path string, opts ...Option) (*Config, error) {
	l := &loader{
		envFiles: []string{".env"},
		environ:  true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	for _, envFile := range l.envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load env file").
				WithMetadata(map[string]any{"path": envFile})
		}
	}

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse config file").
					WithMetadata(map[string]any{"path": path})
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to stat config file")
		}
	}

	if l.environ {
		if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load environment")
		}
	}

	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")

	if key == "google.scopes" {
		return key, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}

	return key, value
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.API),
		validation.Field(&c.Google),
		validation.Field(&c.Storage),
		validation.Field(&c.Log),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}
	return nil
}

func (a APIConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BaseURL, validation.Required, is.URL),
		validation.Field(&a.Timeout, validation.Min(time.Duration(0))),
	)
}

func (g GoogleConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.ClientID, validation.Required),
		validation.Field(&g.RedirectURL, validation.Required, is.URL),
	)
}

func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(
			&s.Driver,
			validation.Required,
			validation.In(DriverMemory, DriverSQLite, DriverRedis),
		),
		validation.Field(&s.DSN, validation.When(s.Driver == DriverSQLite, validation.Required)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("pretty", "json")),
	)
}

func (c *Config) GetBaseURL() string {
	return c.API.BaseURL
}

func (c *Config) GetTimeout() time.Duration {
	return c.API.Timeout
}

func (c *Config) GetWithCredentials() bool {
	return c.API.WithCredentials
}

func (c *Config) GetGoogleClientID() string {
	return c.Google.ClientID
}

func (c *Config) GetGoogleRedirectURL() string {
	return c.Google.RedirectURL
}

func (c *Config) GetGoogleScopes() []string {
	return c.Google.Scopes
}
