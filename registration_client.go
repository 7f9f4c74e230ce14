package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the backend API root used when no config is given
	DefaultBaseURL = "http://localhost:5001/api"
	// DefaultTimeout bounds a single request
	DefaultTimeout = 10 * time.Second

	registerPath    = "/register"
	googleLoginPath = "/google-login"

	// maxResponseBody caps how much of a response we read
	maxResponseBody = 1 << 20
)

// RequestIDHeader carries a per request identifier
const RequestIDHeader = "X-Request-ID"

// RegisterRequest is the payload sent to the register endpoint
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type googleLoginRequest struct {
	Code string `json:"code"`
}

// authResponse covers both the success and the failure body
type authResponse struct {
	Token   string
	Message string
}

type operation struct {
	name     string
	path     string
	fallback string
	textCode string
}

var (
	registerOperation = operation{
		name:     "register",
		path:     registerPath,
		fallback: MessageRegistrationFailed,
		textCode: TextCodeRegistrationFailed,
	}
	googleLoginOperation = operation{
		name:     "google_login",
		path:     googleLoginPath,
		fallback: MessageGoogleLoginFailed,
		textCode: TextCodeGoogleLoginFailed,
	}
)

// ClientOption configures a RegistrationClient
type ClientOption func(*RegistrationClient)

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(rc *RegistrationClient) {
		if client != nil {
			rc.httpClient = client
		}
	}
}

// WithTokenStore sets where tokens are persisted
func WithTokenStore(store TokenStore) ClientOption {
	return func(rc *RegistrationClient) {
		if store != nil {
			rc.tokens = store
		}
	}
}

func WithClientLogger(logger Logger) ClientOption {
	return func(rc *RegistrationClient) {
		rc.logger = ensureLogger(logger)
	}
}

// WithRequestIDGenerator overrides how X-Request-ID values are produced
func WithRequestIDGenerator(gen func() string) ClientOption {
	return func(rc *RegistrationClient) {
		if gen != nil {
			rc.requestID = gen
		}
	}
}

// WithCredentials keeps cookies set by the backend across requests
func WithCredentials(enabled bool) ClientOption {
	return func(rc *RegistrationClient) {
		rc.withCredentials = enabled
	}
}

// RegistrationClient performs the register and google login calls
type RegistrationClient struct {
	baseURL         string
	httpClient      *http.Client
	tokens          TokenStore
	logger          Logger
	requestID       func() string
	withCredentials bool
}

var _ Registrar = (*RegistrationClient)(nil)

// NewRegistrationClient builds a client from cfg. A nil cfg uses the defaults.
func NewRegistrationClient(cfg Config, opts ...ClientOption) *RegistrationClient {
	rc := &RegistrationClient{
		baseURL:   DefaultBaseURL,
		tokens:    NewMemoryTokenStore(),
		logger:    ensureLogger(nil),
		requestID: func() string { return uuid.NewString() },
	}

	timeout := DefaultTimeout
	if cfg != nil {
		if u := strings.TrimSpace(cfg.GetBaseURL()); u != "" {
			rc.baseURL = u
		}
		if t := cfg.GetTimeout(); t > 0 {
			timeout = t
		}
		rc.withCredentials = cfg.GetWithCredentials()
	}
	rc.baseURL = strings.TrimRight(rc.baseURL, "/")

	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}

	if rc.httpClient == nil {
		rc.httpClient = &http.Client{Timeout: timeout}
	}

	if rc.withCredentials && rc.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			rc.logger.Warn("registration client cookie jar unavailable", "error", err)
		} else {
			rc.httpClient.Jar = jar
		}
	}

	return rc
}

// BaseURL returns the API root requests are sent to
func (rc *RegistrationClient) BaseURL() string {
	return rc.baseURL
}

// Tokens returns the store tokens are persisted in
func (rc *RegistrationClient) Tokens() TokenStore {
	return rc.tokens
}

// Register creates an account. On success the returned token replaces any stored one.
func (rc *RegistrationClient) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	rc.logger.Debug("register request", "payload", print.MaybeSecureJSON(req))
	return rc.authenticate(ctx, registerOperation, req)
}

// GoogleLogin trades a Google authorization code for a session
func (rc *RegistrationClient) GoogleLogin(ctx context.Context, code string) (*Session, error) {
	rc.logger.Debug("google login request", "code_length", len(code))
	return rc.authenticate(ctx, googleLoginOperation, googleLoginRequest{Code: code})
}

func (rc *RegistrationClient) authenticate(ctx context.Context, op operation, payload any) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, op.fallback).
			WithTextCode(op.textCode).
			WithCode(goerrors.CodeInternal)
	}

	requestID := rc.requestID()
	endpoint := rc.baseURL + op.path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, op.fallback).
			WithTextCode(op.textCode).
			WithCode(goerrors.CodeInternal)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		rc.logger.Error("auth request failed", "operation", op.name, "request_id", requestID, "error", err)
		return nil, goerrors.Wrap(fmt.Errorf("%w: %w", ErrNetwork, err), goerrors.CategoryExternal, op.fallback).
			WithTextCode(TextCodeNetworkError).
			WithCode(goerrors.CodeRequestTimeout).
			WithRequestID(requestID).
			WithMetadata(map[string]any{
				"operation": op.name,
				"endpoint":  endpoint,
			})
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		rc.logger.Warn("auth response body unreadable", "operation", op.name, "request_id", requestID, "error", readErr)
	}

	decoded := decodeAuthResponse(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rc.logger.Warn("auth request rejected",
			"operation", op.name,
			"request_id", requestID,
			"status", resp.StatusCode,
			"message", decoded.Message,
		)
		return nil, rc.serverError(op, resp.StatusCode, decoded.Message, requestID)
	}

	// a 2xx message is success text, never shown as the failure reason
	if strings.TrimSpace(decoded.Token) == "" {
		rc.logger.Error("auth response missing token", "operation", op.name, "request_id", requestID, "status", resp.StatusCode, "message", decoded.Message)
		return nil, rc.serverError(op, resp.StatusCode, "", requestID).
			WithMetadata(map[string]any{"reason": "missing token"})
	}

	if err := rc.persistToken(ctx, decoded.Token); err != nil {
		rc.logger.Error("auth token persist failed", "operation", op.name, "request_id", requestID, "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, op.fallback).
			WithTextCode(TextCodeTokenPersist).
			WithCode(goerrors.CodeInternal).
			WithRequestID(requestID)
	}

	rc.logger.Info("auth request succeeded", "operation", op.name, "request_id", requestID)

	return SessionFromToken(decoded.Token), nil
}

// persistToken overwrites the previous token. Every TokenStore.Save replaces
// the value under the fixed key, so a failed save keeps the old token.
func (rc *RegistrationClient) persistToken(ctx context.Context, token string) error {
	return rc.tokens.Save(ctx, token)
}

func (rc *RegistrationClient) serverError(op operation, status int, message, requestID string) *goerrors.Error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = op.fallback
	}

	return goerrors.Wrap(fmt.Errorf("%w: status %d", ErrServer, status), goerrors.CategoryExternal, msg).
		WithTextCode(op.textCode).
		WithCode(status).
		WithRequestID(requestID).
		WithMetadata(map[string]any{
			"operation": op.name,
			"status":    status,
		})
}

// decodeAuthResponse never fails. Fields that are missing or not strings are left empty.
func decodeAuthResponse(raw []byte) authResponse {
	var out authResponse
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	out.Token = stringField(fields, "token")
	out.Message = stringField(fields, "message")
	return out
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}
