package domain

import "time"

// RefreshToken is a persisted, single-use refresh credential. Only the keyed hash of the
// opaque token string is stored.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	IPAddress *string
	UserAgent *string
}

// IsExpired checks if the token is expired at the given instant
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// TokenPair is the result of issuing an access/refresh pair
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	ExpiresAt    time.Time
}
