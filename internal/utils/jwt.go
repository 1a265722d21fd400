package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultExpiresInSeconds = 3600
	// maxExpiresIn keeps the result representable as a time.Duration
	maxExpiresIn = math.MaxInt64 / int64(time.Second)
)

var (
	expiresInRegex = regexp.MustCompile(`^(\d+)([smhd])$`)
	expiresInUnits = map[string]int64{"s": 1, "m": 60, "h": 3600, "d": 86400}
)

// ParseExpiresIn converts a lifetime string such as "15m" or "7d" into seconds.
// Unrecognized or overflowing values fall back to one hour.
func ParseExpiresIn(expiresIn string) int64 {
	match := expiresInRegex.FindStringSubmatch(expiresIn)
	if match == nil {
		return defaultExpiresInSeconds
	}

	value, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return defaultExpiresInSeconds
	}

	unit := expiresInUnits[match[2]]
	if value > maxExpiresIn/unit {
		return defaultExpiresInSeconds
	}
	return value * unit
}

// JWTManager signs and verifies access tokens. The only claim callers rely on is sub.
type JWTManager struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, expiresIn string) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		expiresIn: time.Duration(ParseExpiresIn(expiresIn)) * time.Second,
		now:       time.Now,
	}
}

// GenerateAccessToken signs a token for accountID and returns it with its expiry instant
func (j *JWTManager) GenerateAccessToken(accountID string) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.expiresIn)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken verifies signature and expiry and returns the subject
func (j *JWTManager) ValidateAccessToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", errors.New("invalid token")
	}

	if claims.Subject == "" {
		return "", errors.New("missing subject in token")
	}

	return claims.Subject, nil
}

// ExpiresIn returns the access token lifetime in seconds
func (j *JWTManager) ExpiresIn() int64 {
	return int64(j.expiresIn.Seconds())
}
