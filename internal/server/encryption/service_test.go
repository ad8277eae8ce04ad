package encryption

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flipHex(c byte) byte {
	if c == '0' {
		return '1'
	}
	return '0'
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	s := NewService([]byte("root-secret"))

	for _, plain := range []string{"", "a", "123-45-6789", "Übergröße 🐄", strings.Repeat("x", 4096)} {
		enc, err := s.Encrypt(plain)
		require.NoError(t, err)

		got, err := s.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEncrypt_WireFormat(t *testing.T) {
	s := NewService([]byte("root-secret"))

	enc, err := s.Encrypt("hello")
	require.NoError(t, err)

	parts := strings.Split(enc, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 24, "12-byte nonce")
	assert.Len(t, parts[1], 32, "16-byte tag")
	assert.Len(t, parts[2], 10, "ciphertext is as long as the plaintext")
	assert.Equal(t, strings.ToLower(enc), enc)
}

func TestEncrypt_FreshNonce(t *testing.T) {
	s := NewService([]byte("root-secret"))

	a, err := s.Encrypt("same")
	require.NoError(t, err)
	b, err := s.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, enc := range []string{a, b} {
		got, err := s.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, "same", got)
	}
}

func TestDecrypt_DetectsTampering(t *testing.T) {
	s := NewService([]byte("root-secret"))

	enc, err := s.Encrypt("sensitive value")
	require.NoError(t, err)

	tagStart := strings.Index(enc, ":") + 1
	for i := tagStart; i < len(enc); i++ {
		if enc[i] == ':' {
			continue
		}
		b := []byte(enc)
		b[i] = flipHex(b[i])

		_, err := s.Decrypt(string(b))
		assert.ErrorIs(t, err, ErrDecryptionFailed, "position %d", i)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	enc, err := NewService([]byte("key-one")).Encrypt("v")
	require.NoError(t, err)

	_, err = NewService([]byte("key-two")).Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecrypt_InvalidFormat(t *testing.T) {
	s := NewService([]byte("root-secret"))

	valid, err := s.Encrypt("v")
	require.NoError(t, err)
	parts := strings.Split(valid, ":")

	for _, in := range []string{
		"",
		"abc",
		"aa:bb",
		":" + parts[1] + ":" + parts[2],
		parts[0] + "::" + parts[2],
		valid + ":00",
		"zz" + parts[0][2:] + ":" + parts[1] + ":" + parts[2],
		parts[0][:22] + ":" + parts[1] + ":" + parts[2],
		parts[0] + ":" + parts[1][:30] + ":" + parts[2],
		parts[0] + ":" + parts[1] + ":" + parts[2] + "g",
		strings.ToUpper(valid),
	} {
		_, err := s.Decrypt(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}

func TestEmptySecret(t *testing.T) {
	s := NewService(nil)

	_, err := s.Encrypt("x")
	require.Error(t, err)
	_, err = s.Decrypt("00:00:00")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDecryptionFailed)
}

func TestObjects_RoundTrip(t *testing.T) {
	s := NewService([]byte("root-secret"))

	in := map[string]any{
		"ssn":    "123-45-6789",
		"none":   nil,
		"nested": map[string]any{"a": []any{1.0, "two", true}},
		"list":   []any{},
	}
	enc, err := s.EncryptObject(in)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, s.DecryptObject(enc, &out))
	assert.Equal(t, in, out)
}

func TestObjects_NullTopLevel(t *testing.T) {
	s := NewService([]byte("root-secret"))

	enc, err := s.EncryptObject(nil)
	require.NoError(t, err)

	out := map[string]any{"stale": 1}
	require.NoError(t, s.DecryptObject(enc, &out))
	assert.Nil(t, out)
}

func TestObjects_OmittedFieldsDisappear(t *testing.T) {
	type record struct {
		Name  string  `json:"name"`
		Notes *string `json:"notes,omitempty"`
	}
	s := NewService([]byte("root-secret"))

	enc, err := s.EncryptObject(record{Name: "cow"})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, s.DecryptObject(enc, &out))
	assert.Equal(t, map[string]any{"name": "cow"}, out)
	_, present := out["notes"]
	assert.False(t, present)
}

func TestObjects_Errors(t *testing.T) {
	s := NewService([]byte("root-secret"))

	_, err := s.EncryptObject(func() {})
	assert.Error(t, err)

	enc, err := s.Encrypt("not json")
	require.NoError(t, err)
	var out map[string]any
	err = s.DecryptObject(enc, &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDecryptionFailed)

	assert.ErrorIs(t, s.DecryptObject("bad", &out), ErrInvalidFormat)
}

func TestScenario_StoreAndRecoverSSN(t *testing.T) {
	s := NewService([]byte("root-secret"))

	type pii struct {
		SSN string `json:"ssn"`
	}
	stored, err := s.EncryptObject(pii{SSN: "123-45-6789"})
	require.NoError(t, err)
	assert.Len(t, strings.Split(stored, ":"), 3)

	var got pii
	require.NoError(t, NewService([]byte("root-secret")).DecryptObject(stored, &got))
	assert.Equal(t, pii{SSN: "123-45-6789"}, got)
}

func TestService_ConcurrentUse(t *testing.T) {
	s := NewService([]byte("root-secret"))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc, err := s.Encrypt("parallel")
			if err != nil {
				errs <- err
				return
			}
			if _, err := s.Decrypt(enc); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
