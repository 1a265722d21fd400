package app

import (
	"context"
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/repository"
	"go.uber.org/zap"
)

const tokenSweepInterval = time.Hour

// TokenSweeper periodically deletes refresh tokens that expired more than
// retention ago. Younger expired tokens are left for RefreshToken to report.
type TokenSweeper struct {
	tokens    repository.TokenRepository
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewTokenSweeper(tokens repository.TokenRepository, interval, retention time.Duration, logger *zap.Logger) *TokenSweeper {
	return &TokenSweeper{
		tokens:    tokens,
		interval:  interval,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *TokenSweeper) sweep(ctx context.Context) {
	deleted, err := s.tokens.DeleteExpired(ctx, s.now().UTC().Add(-s.retention))
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Failed to delete expired refresh tokens", zap.Error(err))
		}
		return
	}

	if deleted > 0 {
		s.logger.Info("Expired refresh tokens deleted", zap.Int64("count", deleted))
	}
}
