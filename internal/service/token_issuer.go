package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/repository"
	"github.com/prperemyshlev/spotlight-api/internal/utils"
)

const (
	// RefreshTokenTTL is the fixed lifetime of a refresh token
	RefreshTokenTTL = 7 * 24 * time.Hour

	maxIssueAttempts = 3
)

// TokenIssuer mints access tokens and persists opaque refresh tokens
type TokenIssuer struct {
	tokenRepo  repository.TokenRepository
	jwtManager *utils.JWTManager
	hasher     *utils.TokenHasher
	now        func() time.Time
}

// NewTokenIssuer creates a new token issuer
func NewTokenIssuer(tokenRepo repository.TokenRepository, jwtManager *utils.JWTManager, hasher *utils.TokenHasher) *TokenIssuer {
	return &TokenIssuer{
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		hasher:     hasher,
		now:        time.Now,
	}
}

// Issue creates a new access/refresh pair for accountID and stores the refresh token
func (i *TokenIssuer) Issue(ctx context.Context, accountID string, client domain.ClientInfo) (*domain.TokenPair, error) {
	accessToken, expiresAt, err := i.jwtManager.GenerateAccessToken(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	var refreshToken string
	for attempt := 1; ; attempt++ {
		refreshToken, err = utils.GenerateOpaqueToken()
		if err != nil {
			return nil, err
		}

		stored := &domain.RefreshToken{
			AccountID: accountID,
			TokenHash: i.hasher.Hash(refreshToken),
			ExpiresAt: i.now().UTC().Add(RefreshTokenTTL),
			IPAddress: optional(client.IPAddress),
			UserAgent: optional(utils.TruncateUserAgent(client.UserAgent)),
		}

		err = i.tokenRepo.Create(ctx, stored)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateToken) || attempt == maxIssueAttempts {
			return nil, fmt.Errorf("failed to save refresh token: %w", err)
		}
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    i.jwtManager.ExpiresIn(),
		ExpiresAt:    expiresAt,
	}, nil
}

// HashToken returns the at-rest key of an opaque token
func (i *TokenIssuer) HashToken(token string) string {
	return i.hasher.Hash(token)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
