// Package encryption protects individual sensitive column values at rest.
//
// A value is stored as "<nonce-hex>:<tag-hex>:<ciphertext-hex>", sealed with
// AES-256-GCM under a key derived from the root secret.
package encryption

import (
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/farmkeeper/internal/cryptox"
)

const separator = ":"

var (
	// ErrInvalidFormat means the stored value is not three lowercase hex
	// fields with a non-empty nonce and tag of the expected length.
	ErrInvalidFormat = errors.New("encryption: invalid encrypted value format")

	// ErrDecryptionFailed covers wrong keys and corrupted or tampered data
	// alike.
	ErrDecryptionFailed = errors.New("encryption: decryption failed")
)

// Service encrypts and decrypts single values. The key is derived from the
// secret on first use and then shared by all callers.
type Service struct {
	secret []byte

	once    sync.Once
	aead    cipher.AEAD
	initErr error
}

func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

func (s *Service) getAEAD() (cipher.AEAD, error) {
	s.once.Do(func() {
		key, err := cryptox.DeriveKey(s.secret, cryptox.PurposeFieldEncryption)
		if err != nil {
			s.initErr = fmt.Errorf("encryption key: %w", err)
			return
		}
		s.aead, s.initErr = cryptox.NewGCM(key)
	})
	return s.aead, s.initErr
}

// Encrypt seals plainText under a fresh random nonce, so equal inputs never
// produce equal outputs.
func (s *Service) Encrypt(plainText string) (string, error) {
	aead, err := s.getAEAD()
	if err != nil {
		return "", err
	}

	nonce, ciphertext, tag, err := cryptox.Seal(aead, []byte(plainText))
	if err != nil {
		return "", fmt.Errorf("encryption: %w", err)
	}

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, separator), nil
}

// Decrypt reverses Encrypt. Format problems return ErrInvalidFormat, failed
// authentication returns ErrDecryptionFailed.
func (s *Service) Decrypt(encryptedText string) (string, error) {
	aead, err := s.getAEAD()
	if err != nil {
		return "", err
	}

	parts := strings.Split(encryptedText, separator)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || strings.ToLower(encryptedText) != encryptedText {
		return "", ErrInvalidFormat
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != aead.NonceSize() {
		return "", ErrInvalidFormat
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != aead.Overhead() {
		return "", ErrInvalidFormat
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidFormat
	}

	plain, err := cryptox.Open(aead, nonce, ciphertext, tag)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

// EncryptObject JSON-encodes v and encrypts the result. Whatever encoding/json
// drops (nil fields tagged omitempty, unexported fields) is gone after a round trip.
func (s *Service) EncryptObject(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encryption: marshal: %w", err)
	}
	return s.Encrypt(string(data))
}

// DecryptObject decrypts encryptedText and JSON-decodes it into v.
func (s *Service) DecryptObject(encryptedText string, v any) error {
	plain, err := s.Decrypt(encryptedText)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plain), v); err != nil {
		return fmt.Errorf("encryption: unmarshal: %w", err)
	}
	return nil
}
