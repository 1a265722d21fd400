package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/pkg/database"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrResetTokenNotFound is returned when a reset token is unknown, expired or already used
var ErrResetTokenNotFound = errors.New("reset token not found")

// PasswordResetStore keeps single-use password reset tokens keyed by their hash
type PasswordResetStore interface {
	// Save stores tokenHash for accountID and invalidates the account's previous token.
	Save(ctx context.Context, tokenHash, accountID string, ttl time.Duration) error
	// Consume atomically removes tokenHash and returns the account it belonged to.
	Consume(ctx context.Context, tokenHash string) (string, error)
}

// RedisResetStore implements PasswordResetStore in Redis
type RedisResetStore struct {
	redis *database.Redis
}

// NewRedisResetStore creates a new Redis-backed reset token store
func NewRedisResetStore(redis *database.Redis) *RedisResetStore {
	return &RedisResetStore{redis: redis}
}

func resetTokenKey(tokenHash string) string {
	return fmt.Sprintf("password_reset:token:%s", tokenHash)
}

func resetAccountKey(accountID string) string {
	return fmt.Sprintf("password_reset:account:%s", accountID)
}

// Save stores a reset token with the given lifetime
func (s *RedisResetStore) Save(ctx context.Context, tokenHash, accountID string, ttl time.Duration) error {
	previous, err := s.redis.Client.Get(ctx, resetAccountKey(accountID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read previous reset token: %w", err)
	}

	_, err = s.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != "" {
			pipe.Del(ctx, resetTokenKey(previous))
		}
		pipe.Set(ctx, resetTokenKey(tokenHash), accountID, ttl)
		pipe.Set(ctx, resetAccountKey(accountID), tokenHash, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	return nil
}

// Consume removes a reset token and returns its account
func (s *RedisResetStore) Consume(ctx context.Context, tokenHash string) (string, error) {
	accountID, err := s.redis.Client.GetDel(ctx, resetTokenKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrResetTokenNotFound
		}
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}

	if err := s.redis.Client.Del(ctx, resetAccountKey(accountID)).Err(); err != nil {
		return "", fmt.Errorf("failed to clear reset token index: %w", err)
	}

	return accountID, nil
}

// PasswordResetNotifier delivers reset links to account owners
type PasswordResetNotifier interface {
	SendPasswordReset(ctx context.Context, account *domain.Account, resetURL string, expiresIn time.Duration) error
}

// LogNotifier writes reset links to the log instead of sending email
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs deliveries
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, account *domain.Account, resetURL string, expiresIn time.Duration) error {
	n.logger.Info("Password reset requested",
		zap.String("account_id", account.ID),
		zap.Duration("expires_in", expiresIn),
	)
	n.logger.Debug("Password reset link", zap.String("email", account.Email), zap.String("url", resetURL))
	return nil
}

// buildResetURL appends the token to the client-supplied callback
func buildResetURL(callback, token string) (string, error) {
	u, err := url.Parse(callback)
	if err != nil {
		return "", fmt.Errorf("invalid callback url: %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
