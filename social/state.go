package social

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultStateTTL bounds how long an issued state stays valid
const DefaultStateTTL = 10 * time.Minute

// StateManager handles OAuth state encoding and verification.
type StateManager interface {
	Encode(state *OAuthState) (string, error)
	Decode(token string) (*OAuthState, error)
}

// OAuthState is carried through the consent screen in the state parameter.
type OAuthState struct {
	Nonce       string `json:"n"`
	Provider    string `json:"p"`
	RedirectURL string `json:"r,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// StateOption customizes an EncryptedStateManager
type StateOption func(*EncryptedStateManager)

// WithStateClock overrides the clock used for issue and expiry checks
func WithStateClock(now func() time.Time) StateOption {
	return func(sm *EncryptedStateManager) {
		if now != nil {
			sm.now = now
		}
	}
}

// EncryptedStateManager uses AES-GCM encryption and HMAC signing.
type EncryptedStateManager struct {
	encryptionKey []byte
	hmacKey       []byte
	ttl           time.Duration
	now           func() time.Time
}

// NewEncryptedStateManager creates a state manager. encryptionKey must be
// 16, 24 or 32 bytes.
func NewEncryptedStateManager(encryptionKey, hmacKey []byte, ttl time.Duration, opts ...StateOption) (*EncryptedStateManager, error) {
	switch len(encryptionKey) {
	case 16, 24, 32:
	default:
		return nil, goerrors.New("state encryption key must be 16, 24 or 32 bytes", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"length": len(encryptionKey)})
	}

	if len(hmacKey) == 0 {
		return nil, goerrors.New("state signing key is required", goerrors.CategoryBadInput)
	}

	if ttl == 0 {
		ttl = DefaultStateTTL
	}

	sm := &EncryptedStateManager{
		encryptionKey: encryptionKey,
		hmacKey:       hmacKey,
		ttl:           ttl,
		now:           time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm, nil
}

// NewEphemeralStateManager generates throwaway keys. States it issues are
// only valid within the running process.
func NewEphemeralStateManager(ttl time.Duration, opts ...StateOption) (*EncryptedStateManager, error) {
	encKey := make([]byte, 32)
	if _, err := rand.Read(encKey); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate state key")
	}

	macKey := make([]byte, 32)
	if _, err := rand.Read(macKey); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate state key")
	}

	return NewEncryptedStateManager(encKey, macKey, ttl, opts...)
}

// Encode encrypts and signs the state.
func (sm *EncryptedStateManager) Encode(state *OAuthState) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	now := sm.now()
	if state.IssuedAt == 0 {
		state.IssuedAt = now.Unix()
	}
	if state.ExpiresAt == 0 {
		state.ExpiresAt = now.Add(sm.ttl).Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	plaintext, err := json.Marshal(state)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to marshal state")
	}

	gcm, err := sm.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate nonce")
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	signature := sm.sign(ciphertext)

	return base64.RawURLEncoding.EncodeToString(append(signature, ciphertext...)), nil
}

// Decode verifies and decrypts the state.
func (sm *EncryptedStateManager) Decode(token string) (*OAuthState, error) {
	if token == "" {
		return nil, ErrInvalidState
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(data) < sha256.Size {
		return nil, ErrInvalidState
	}

	signature, ciphertext := data[:sha256.Size], data[sha256.Size:]
	if !hmac.Equal(signature, sm.sign(ciphertext)) {
		return nil, ErrInvalidState
	}

	gcm, err := sm.aead()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidState
	}

	nonce, encrypted := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, ErrInvalidState
	}

	var state OAuthState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, ErrInvalidState
	}

	if sm.now().Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	return &state, nil
}

func (sm *EncryptedStateManager) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, sm.hmacKey)
	mac.Write(payload)
	return mac.Sum(nil)
}

func (sm *EncryptedStateManager) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(sm.encryptionKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create GCM")
	}
	return gcm, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
