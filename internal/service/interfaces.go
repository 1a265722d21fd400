package service

import (
	"context"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
)

// AuthService defines methods for authentication operations. Operations acting on
// behalf of a signed-in caller take the principal explicitly.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, client domain.ClientInfo) (*dto.AuthenticationResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, client domain.ClientInfo) (*dto.AuthenticationResponse, error)
	RefreshToken(ctx context.Context, refreshToken string, client domain.ClientInfo) (*dto.AuthenticationResponse, error)
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) (*dto.MessageResponse, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) (*dto.MessageResponse, error)
	UpdatePassword(ctx context.Context, principal domain.Principal, req *dto.UpdatePasswordRequest) (*dto.MessageResponse, error)
	Logout(ctx context.Context, principal domain.Principal) (*dto.MessageResponse, error)
	GetProfile(ctx context.Context, principal domain.Principal) (*dto.ProfileResponse, error)
	ValidateToken(ctx context.Context, token string) (domain.Principal, error)
}

// UserService defines methods for profile, preferences and account state
type UserService interface {
	UpdateProfile(ctx context.Context, principal domain.Principal, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	GetPreferences(ctx context.Context, principal domain.Principal) (*dto.PreferencesInfo, error)
	UpdatePreferences(ctx context.Context, principal domain.Principal, req *dto.UpdatePreferencesRequest) (*dto.PreferencesInfo, error)
	DisableAccount(ctx context.Context, principal domain.Principal, accountID string) (*dto.MessageResponse, error)
}

// ChatService defines methods for chat rooms and messages
type ChatService interface {
	ListRooms(ctx context.Context, principal domain.Principal) ([]*domain.ChatRoom, error)
	GetRoom(ctx context.Context, principal domain.Principal, roomID string) (*domain.ChatRoom, error)
	FindOrCreateDirectRoom(ctx context.Context, principal domain.Principal, otherID string) (*domain.ChatRoom, error)
	CreateGroupRoom(ctx context.Context, principal domain.Principal, name *string, memberIDs []string) (*domain.ChatRoom, error)
	ListMessages(ctx context.Context, principal domain.Principal, roomID string, page, size int) ([]*domain.ChatMessage, error)
	SendMessage(ctx context.Context, principal domain.Principal, roomID, content string, msgType domain.MessageType) (*domain.ChatMessage, error)
}
