// Package secret seals small JSON payloads at rest with AES-256-GCM.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/smallbiznis/orgkeeper/internal/config"
	"go.uber.org/fx"
	"golang.org/x/crypto/hkdf"
)

var Module = fx.Module("secret",
	fx.Provide(NewFromConfig),
)

const (
	envelopeVersion = 1
	keyInfo         = "orgkeeper/oidc-client-config/v1"
)

var (
	ErrKeyMissing     = errors.New("encryption key missing")
	ErrInvalidPayload = errors.New("invalid sealed payload")
)

// Cipher opaquely seals and opens byte payloads.
type Cipher interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type envelope struct {
	Version    int    `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

type aesCipher struct {
	aead cipher.AEAD
}

// NewFromConfig derives the AES key from SSO_ENCRYPTION_KEY.
func NewFromConfig(cfg config.Config) (Cipher, error) {
	return New(cfg.SSOEncryptionKey)
}

// New derives a 256-bit key from secret with HKDF-SHA256. An empty secret yields a
// cipher that refuses every operation.
func New(secret string) (Cipher, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return missingKey{}, nil
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aesCipher{aead: gcm}, nil
}

func (c *aesCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	ciphertext := c.aead.Seal(nil, nonce, plaintext, nil)
	return json.Marshal(envelope{
		Version:    envelopeVersion,
		Nonce:      base64.RawStdEncoding.EncodeToString(nonce),
		Ciphertext: base64.RawStdEncoding.EncodeToString(ciphertext),
	})
}

func (c *aesCipher) Open(sealed []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, ErrInvalidPayload
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidPayload, env.Version)
	}

	nonce, err := base64.RawStdEncoding.DecodeString(env.Nonce)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return nil, ErrInvalidPayload
	}
	ciphertext, err := base64.RawStdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, ErrInvalidPayload
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return plaintext, nil
}

type missingKey struct{}

func (missingKey) Seal([]byte) ([]byte, error) { return nil, ErrKeyMissing }
func (missingKey) Open([]byte) ([]byte, error) { return nil, ErrKeyMissing }

// SealJSON marshals v and seals the result.
func SealJSON[T any](c Cipher, v T) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.Seal(plaintext)
}

// OpenJSON opens sealed and unmarshals the payload into T.
func OpenJSON[T any](c Cipher, sealed []byte) (T, error) {
	var out T
	plaintext, err := c.Open(sealed)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(plaintext, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out, nil
}
