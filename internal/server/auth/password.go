package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/cryptox"
	"golang.org/x/crypto/argon2"
)

const (
	hashAlgorithm = "argon2id"
	saltLength    = 16
)

// PasswordHasher turns plaintext passwords into salted Argon2id digests.
//
// Encoded form (all hex lowercase):
//
//	argon2id$v=19$m=<KiB>,t=<time>,p=<threads>$<salt>$<digest>
//
// The cost parameters travel with each digest, so raising them in config
// does not invalidate existing users.
type PasswordHasher struct {
	params cryptox.Argon2Params
}

func NewPasswordHasher(params cryptox.Argon2Params) *PasswordHasher {
	return &PasswordHasher{params: params}
}

// Hash returns the encoded digest of password under a fresh random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := common.GenerateRandByteArray(saltLength)
	digest := cryptox.Argon2ID([]byte(password), salt, h.params)

	return fmt.Sprintf("%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		hashAlgorithm, argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		hex.EncodeToString(salt), hex.EncodeToString(digest)), nil
}

// Verify reports whether password produces stored. A malformed stored value
// is simply a mismatch.
func (h *PasswordHasher) Verify(password, stored string) bool {
	params, salt, digest, ok := decodeHash(stored)
	if !ok {
		return false
	}
	candidate := cryptox.Argon2ID([]byte(password), salt, params)
	return subtle.ConstantTimeCompare(digest, candidate) == 1
}

func decodeHash(stored string) (cryptox.Argon2Params, []byte, []byte, bool) {
	var p cryptox.Argon2Params

	parts := strings.Split(stored, "$")
	if len(parts) != 5 || parts[0] != hashAlgorithm {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, false
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return p, nil, nil, false
	}

	salt, err := hex.DecodeString(parts[3])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	digest, err := hex.DecodeString(parts[4])
	if err != nil || len(digest) == 0 {
		return p, nil, nil, false
	}
	p.KeyLen = uint32(len(digest))

	return p, salt, digest, true
}
