package domain

// HashAlgorithm tags the algorithm a stored password hash was produced with
type HashAlgorithm string

const (
	HashArgon2id HashAlgorithm = "argon2id"
	// HashBcrypt is accepted for verification only.
	HashBcrypt HashAlgorithm = "bcrypt"
)

// PasswordHash is a stored password hash together with its algorithm tag.
type PasswordHash struct {
	Algorithm HashAlgorithm
	Encoded   string
}

// IsLegacy reports whether the hash was produced by an algorithm that is no longer used for new hashes.
func (h PasswordHash) IsLegacy() bool {
	return h.Algorithm != HashArgon2id
}
