// Package cryptox holds the primitives shared by the token, password and field
// encryption services. Key derivation lives here so every caller derives keys
// the same way.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of every derived key: AES-256 and HMAC-SHA256 both use 32 bytes.
const KeySize = 32

// Purpose labels for DeriveKey. Changing one invalidates everything protected by it.
const (
	PurposeTokenSigning    = "farmkeeper/token-signing/v1"
	PurposeFieldEncryption = "farmkeeper/field-encryption/v1"
)

var ErrEmptySecret = errors.New("cryptox: empty secret")

// DeriveKey expands the root secret into a KeySize key bound to purpose using
// HKDF-SHA256. Keys for different purposes are independent of each other.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Argon2Params are the Argon2id cost settings.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option.
var DefaultArgon2Params = Argon2Params{Time: 3, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

func Argon2ID(password, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// NewGCM returns an AES-GCM AEAD for key.
func NewGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with a fresh random nonce and returns the nonce, the
// ciphertext and the authentication tag as separate slices.
func Seal(aead cipher.AEAD, plaintext []byte) (nonce, ciphertext, tag []byte, err error) {
	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - aead.Overhead()

	return nonce, sealed[:split], sealed[split:], nil
}

// Open reverses Seal. Any authentication failure surfaces as the AEAD's error.
func Open(aead cipher.AEAD, nonce, ciphertext, tag []byte) ([]byte, error) {
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	return aead.Open(nil, nonce, sealed, nil)
}
