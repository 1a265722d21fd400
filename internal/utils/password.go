package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

var errMalformedHash = errors.New("malformed argon2id hash")

// Argon2Params are the cost parameters for new hashes
type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
}

// DefaultArgon2Params: 64 MiB, 3 iterations, 4 lanes
var DefaultArgon2Params = Argon2Params{Memory: 64 * 1024, Time: 3, Parallelism: 4}

// PasswordHasher hashes with argon2id and verifies argon2id or legacy bcrypt hashes.
// Hashing is deliberately expensive.
type PasswordHasher struct {
	params Argon2Params
}

// NewPasswordHasher creates a hasher using the given cost parameters for new hashes
func NewPasswordHasher(params Argon2Params) *PasswordHasher {
	return &PasswordHasher{params: params}
}

// Hash hashes a password with argon2id in PHC string format
func (h *PasswordHasher) Hash(password string) (domain.PasswordHash, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return domain.PasswordHash{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, argon2KeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return domain.PasswordHash{Algorithm: domain.HashArgon2id, Encoded: encoded}, nil
}

// Verify compares a password with a stored hash. Any internal failure reports false.
func (h *PasswordHasher) Verify(hash domain.PasswordHash, password string) bool {
	switch hash.Algorithm {
	case domain.HashArgon2id:
		params, salt, key, err := decodeArgon2id(hash.Encoded)
		if err != nil {
			return false
		}
		calculated := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))
		return subtle.ConstantTimeCompare(calculated, key) == 1
	case domain.HashBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(hash.Encoded), []byte(password)) == nil
	default:
		return false
	}
}

// NeedsRehash reports whether hash should be re-encoded with the current algorithm and parameters
func (h *PasswordHasher) NeedsRehash(hash domain.PasswordHash) bool {
	if hash.IsLegacy() {
		return true
	}

	params, _, _, err := decodeArgon2id(hash.Encoded)
	if err != nil {
		return true
	}

	return params.Memory < h.params.Memory ||
		params.Time < h.params.Time ||
		params.Parallelism < h.params.Parallelism
}

// HashBcrypt produces a legacy bcrypt hash. Only used to seed and migrate legacy accounts.
func HashBcrypt(password string, cost int) (domain.PasswordHash, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return domain.PasswordHash{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return domain.PasswordHash{Algorithm: domain.HashBcrypt, Encoded: string(bytes)}, nil
}

// decodeArgon2id parses $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
func decodeArgon2id(encoded string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	var params Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); err != nil {
		return Argon2Params{}, nil, nil, errMalformedHash
	}
	if params.Time == 0 || params.Parallelism == 0 {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	return params, salt, key, nil
}
