package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
	"github.com/prperemyshlev/spotlight-api/internal/repository"
	"github.com/prperemyshlev/spotlight-api/internal/utils"
	"github.com/prperemyshlev/spotlight-api/pkg/observability"
	"go.uber.org/zap"
)

const (
	forgotPasswordMessage = "If the email exists, a password reset link has been sent"
	resetPasswordMessage  = "Password reset successfully. Please login with your new password."
	updatePasswordMessage = "Password updated successfully. Please login again."
	logoutMessage         = "Logged out successfully"
)

// AuthDeps are the collaborators of the auth service
type AuthDeps struct {
	Accounts         repository.AccountRepository
	Tokens           repository.TokenRepository
	Issuer           *TokenIssuer
	Passwords        *utils.PasswordHasher
	JWT              *utils.JWTManager
	ResetStore       PasswordResetStore
	Notifier         PasswordResetNotifier
	PasswordResetTTL time.Duration
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// authService implements AuthService interface
type authService struct {
	accountRepo      repository.AccountRepository
	tokenRepo        repository.TokenRepository
	issuer           *TokenIssuer
	passwords        *utils.PasswordHasher
	jwtManager       *utils.JWTManager
	resetStore       PasswordResetStore
	notifier         PasswordResetNotifier
	passwordResetTTL time.Duration
	metrics          *observability.Metrics
	logger           *zap.Logger
	now              func() time.Time

	dummyOnce sync.Once
	dummy     domain.PasswordHash
}

// NewAuthService creates a new auth service
func NewAuthService(deps AuthDeps) AuthService {
	if deps.Metrics == nil {
		deps.Metrics = observability.NewNopMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &authService{
		accountRepo:      deps.Accounts,
		tokenRepo:        deps.Tokens,
		issuer:           deps.Issuer,
		passwords:        deps.Passwords,
		jwtManager:       deps.JWT,
		resetStore:       deps.ResetStore,
		notifier:         deps.Notifier,
		passwordResetTTL: deps.PasswordResetTTL,
		metrics:          deps.Metrics,
		logger:           deps.Logger,
		now:              time.Now,
	}
}

// Register creates an account with default preferences and signs it in
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, client domain.ClientInfo) (*dto.AuthenticationResponse, error) {
	email := utils.SanitizeEmail(req.Email)

	_, err := s.accountRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, domain.ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check account existence: %w", err)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Password:     hash,
		AreaActivity: req.AreaActivity,
		Role:         domain.RoleUser,
		Enabled:      true,
	}

	if err := s.accountRepo.CreateWithPreferences(ctx, account, domain.DefaultPreferences("")); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, domain.ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	tokens, err := s.issuer.Issue(ctx, account.ID, client)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration(ctx)
	s.metrics.RecordTokensIssued(ctx, "register")
	s.logger.Info("Account registered", zap.String("account_id", account.ID))

	return s.buildAuthResponse(account, tokens, client, true), nil
}

// Login authenticates with email and password
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, client domain.ClientInfo) (*dto.AuthenticationResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Spend the same hashing time as for a real account.
			s.passwords.Verify(s.dummyHash(), req.Password)
			s.metrics.RecordLogin(ctx, "failure")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.Enabled {
		s.metrics.RecordLogin(ctx, "disabled")
		return nil, domain.ErrAccountDisabled
	}

	if !s.passwords.Verify(account.Password, req.Password) {
		s.metrics.RecordLogin(ctx, "failure")
		s.logger.Info("Login failed", zap.String("account_id", account.ID), zap.String("ip", client.IPAddress))
		return nil, domain.ErrInvalidCredentials
	}

	count, err := s.tokenRepo.CountByAccountID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	firstLogin := count == 0

	if s.passwords.NeedsRehash(account.Password) {
		s.rehash(ctx, account, req.Password)
	}

	tokens, err := s.issuer.Issue(ctx, account.ID, client)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(ctx, "success")
	s.metrics.RecordTokensIssued(ctx, "login")

	return s.buildAuthResponse(account, tokens, client, firstLogin), nil
}

// rehash upgrades a stored hash after a successful login. Failures only get logged.
func (s *authService) rehash(ctx context.Context, account *domain.Account, password string) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.Warn("Password rehash failed", zap.String("account_id", account.ID), zap.Error(err))
		return
	}

	if err := s.accountRepo.UpdatePassword(ctx, account.ID, hash); err != nil {
		s.logger.Warn("Password rehash not persisted", zap.String("account_id", account.ID), zap.Error(err))
		return
	}

	s.logger.Info("Password hash upgraded",
		zap.String("account_id", account.ID),
		zap.String("from", string(account.Password.Algorithm)),
	)
	account.Password = hash
}

// RefreshToken consumes a refresh token and issues a new pair
func (s *authService) RefreshToken(ctx context.Context, refreshToken string, client domain.ClientInfo) (*dto.AuthenticationResponse, error) {
	stored, err := s.tokenRepo.GetByTokenHash(ctx, s.issuer.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if stored.IsExpired(s.now()) {
		if err := s.tokenRepo.DeleteByID(ctx, stored.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to delete expired refresh token", zap.String("token_id", stored.ID), zap.Error(err))
		}
		return nil, domain.ErrRefreshTokenExpired
	}

	account, err := s.accountRepo.GetByID(ctx, stored.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.Enabled {
		return nil, domain.ErrAccountDisabled
	}

	// Losing a concurrent rotation of the same token leaves nothing to delete.
	if err := s.tokenRepo.DeleteByID(ctx, stored.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	tokens, err := s.issuer.Issue(ctx, account.ID, client)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTokensIssued(ctx, "refresh")

	return s.buildAuthResponse(account, tokens, client, false), nil
}

// ForgotPassword sends a reset link when the account exists. The response never
// reveals whether it does.
func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) (*dto.MessageResponse, error) {
	response := &dto.MessageResponse{Message: forgotPasswordMessage}

	account, err := s.accountRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Forgot password lookup failed", zap.Error(err))
		}
		return response, nil
	}

	if !account.Enabled {
		return response, nil
	}

	token, err := utils.GenerateOpaqueToken()
	if err != nil {
		s.logger.Error("Failed to generate reset token", zap.Error(err))
		return response, nil
	}

	resetURL, err := buildResetURL(req.URLCallback, token)
	if err != nil {
		s.logger.Warn("Rejected reset callback", zap.String("account_id", account.ID), zap.Error(err))
		return response, nil
	}

	if err := s.resetStore.Save(ctx, s.issuer.HashToken(token), account.ID, s.passwordResetTTL); err != nil {
		s.logger.Error("Failed to store reset token", zap.String("account_id", account.ID), zap.Error(err))
		return response, nil
	}

	if err := s.notifier.SendPasswordReset(ctx, account, resetURL, s.passwordResetTTL); err != nil {
		s.logger.Error("Failed to deliver reset link", zap.String("account_id", account.ID), zap.Error(err))
	}

	return response, nil
}

// ResetPassword sets a new password with a single-use reset token
func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) (*dto.MessageResponse, error) {
	accountID, err := s.resetStore.Consume(ctx, s.issuer.HashToken(req.Token))
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.Enabled {
		return nil, domain.ErrInvalidResetToken
	}

	if err := s.setPassword(ctx, account.ID, req.NewPassword); err != nil {
		return nil, err
	}

	s.logger.Info("Password reset", zap.String("account_id", account.ID))

	return &dto.MessageResponse{Message: resetPasswordMessage}, nil
}

// UpdatePassword changes the caller's password and ends every session
func (s *authService) UpdatePassword(ctx context.Context, principal domain.Principal, req *dto.UpdatePasswordRequest) (*dto.MessageResponse, error) {
	if req.NewPassword != req.ConfirmNewPassword {
		return nil, domain.ErrPasswordsDoNotMatch
	}

	account, err := s.accountRepo.GetByID(ctx, principal.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !s.passwords.Verify(account.Password, req.CurrentPassword) {
		return nil, domain.ErrInvalidCurrentPassword
	}

	if err := s.setPassword(ctx, account.ID, req.NewPassword); err != nil {
		return nil, err
	}

	s.logger.Info("Password updated", zap.String("account_id", account.ID))

	return &dto.MessageResponse{Message: updatePasswordMessage}, nil
}

// setPassword stores a new hash and revokes all refresh tokens of the account
func (s *authService) setPassword(ctx context.Context, accountID, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePassword(ctx, accountID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if _, err := s.tokenRepo.DeleteByAccountID(ctx, accountID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return nil
}

// Logout revokes every refresh token of the caller
func (s *authService) Logout(ctx context.Context, principal domain.Principal) (*dto.MessageResponse, error) {
	deleted, err := s.tokenRepo.DeleteByAccountID(ctx, principal.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.logger.Info("Logged out",
		zap.String("account_id", principal.AccountID),
		zap.Int64("tokens_revoked", deleted),
	)

	return &dto.MessageResponse{Message: logoutMessage}, nil
}

// GetProfile returns the caller's account with its preferences
func (s *authService) GetProfile(ctx context.Context, principal domain.Principal) (*dto.ProfileResponse, error) {
	return loadProfile(ctx, s.accountRepo, principal.AccountID)
}

// ValidateToken verifies an access token and returns its principal
func (s *authService) ValidateToken(ctx context.Context, token string) (domain.Principal, error) {
	subject, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	return domain.Principal{AccountID: subject}, nil
}

func (s *authService) buildAuthResponse(account *domain.Account, tokens *domain.TokenPair, client domain.ClientInfo, firstLogin bool) *dto.AuthenticationResponse {
	session := dto.SessionInfo{
		AuthenticatedAt: s.now().UTC(),
		IPAddress:       optional(client.IPAddress),
	}

	if client.UserAgent != "" {
		ua := utils.TruncateUserAgent(client.UserAgent)
		session.DeviceInfo = &dto.DeviceInfo{
			UserAgent: ua,
			Platform:  utils.DetectPlatform(ua),
		}
	}

	return &dto.AuthenticationResponse{
		Tokens: dto.TokenInfo{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			TokenType:    tokens.TokenType,
			ExpiresIn:    tokens.ExpiresIn,
			ExpiresAt:    tokens.ExpiresAt,
		},
		User:    dto.NewUserInfo(account),
		Account: dto.NewAccountInfo(account, firstLogin),
		Session: session,
	}
}

func (s *authService) dummyHash() domain.PasswordHash {
	s.dummyOnce.Do(func() {
		token, err := utils.GenerateOpaqueToken()
		if err != nil {
			token = "spotlight-dummy-password"
		}
		s.dummy, _ = s.passwords.Hash(token)
	})
	return s.dummy
}
