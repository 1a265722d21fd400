package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
	"github.com/prperemyshlev/spotlight-api/internal/repository"
	"go.uber.org/zap"
)

const disableAccountMessage = "Account disabled successfully"

// userService implements UserService interface
type userService struct {
	accountRepo repository.AccountRepository
	logger      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(accountRepo repository.AccountRepository, logger *zap.Logger) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &userService{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// UpdateProfile changes the caller's profile fields and returns the updated profile
func (s *userService) UpdateProfile(ctx context.Context, principal domain.Principal, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	update := domain.ProfileUpdate{
		AreaActivity: req.AreaActivity,
		Avatar:       req.Avatar,
		CoverImage:   req.CoverImage,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidProfile
		}
		update.Name = &name
	}

	if err := s.accountRepo.UpdateProfile(ctx, principal.AccountID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return loadProfile(ctx, s.accountRepo, principal.AccountID)
}

// GetPreferences returns the caller's preferences, creating the defaults when missing
func (s *userService) GetPreferences(ctx context.Context, principal domain.Principal) (*dto.PreferencesInfo, error) {
	prefs, err := s.preferences(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}

	return dto.NewPreferencesInfo(prefs), nil
}

// UpdatePreferences applies the fields present in req
func (s *userService) UpdatePreferences(ctx context.Context, principal domain.Principal, req *dto.UpdatePreferencesRequest) (*dto.PreferencesInfo, error) {
	prefs, err := s.preferences(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}

	if req.EmailNotifications != nil {
		prefs.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		prefs.PushNotifications = *req.PushNotifications
	}
	if req.ProfileVisibility != nil {
		prefs.ProfileVisibility = *req.ProfileVisibility
	}

	if err := s.upsertPreferences(ctx, prefs); err != nil {
		return nil, err
	}

	return dto.NewPreferencesInfo(prefs), nil
}

// DisableAccount disables accountID. Admins may disable any account, everyone else only their own.
// Outstanding refresh tokens are kept so their next use reports the account as disabled.
func (s *userService) DisableAccount(ctx context.Context, principal domain.Principal, accountID string) (*dto.MessageResponse, error) {
	if principal.AccountID != accountID {
		caller, err := s.accountRepo.GetByID(ctx, principal.AccountID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		if caller == nil || caller.Role != domain.RoleAdmin {
			return nil, domain.ErrDisableForbidden
		}
	}

	if err := s.accountRepo.SetEnabled(ctx, accountID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to disable account: %w", err)
	}

	s.logger.Info("Account disabled",
		zap.String("account_id", accountID),
		zap.String("disabled_by", principal.AccountID),
	)

	return &dto.MessageResponse{Message: disableAccountMessage}, nil
}

func (s *userService) preferences(ctx context.Context, accountID string) (*domain.Preferences, error) {
	prefs, err := s.accountRepo.GetPreferences(ctx, accountID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	prefs = domain.DefaultPreferences(accountID)
	if err := s.upsertPreferences(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *userService) upsertPreferences(ctx context.Context, prefs *domain.Preferences) error {
	if err := s.accountRepo.UpsertPreferences(ctx, prefs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// loadProfile builds the profile view of an account
func loadProfile(ctx context.Context, accounts repository.AccountRepository, accountID string) (*dto.ProfileResponse, error) {
	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	response := &dto.ProfileResponse{
		User:    dto.NewUserInfo(account),
		Account: dto.NewAccountInfo(account, false),
	}

	prefs, err := accounts.GetPreferences(ctx, account.ID)
	switch {
	case err == nil:
		response.Preferences = dto.NewPreferencesInfo(prefs)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return response, nil
}
