package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
)

// AccountRepository defines methods for account operations
type AccountRepository interface {
	// CreateWithPreferences inserts the account and its preferences in one transaction.
	CreateWithPreferences(ctx context.Context, account *domain.Account, prefs *domain.Preferences) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id string, hash domain.PasswordHash) error
	// UpdateProfile applies the non-nil fields of update.
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	GetPreferences(ctx context.Context, accountID string) (*domain.Preferences, error)
	// UpsertPreferences creates or replaces the preferences row of prefs.AccountID.
	UpsertPreferences(ctx context.Context, prefs *domain.Preferences) error
}

// TokenRepository defines methods for refresh token operations
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	CountByAccountID(ctx context.Context, accountID string) (int, error)
	// DeleteByID returns ErrNotFound when no row was deleted.
	DeleteByID(ctx context.Context, id string) error
	DeleteByAccountID(ctx context.Context, accountID string) (int64, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ChatRepository defines methods for chat rooms and messages
type ChatRepository interface {
	// CreateRoom inserts the room and its members in one transaction. A one-on-one
	// room whose direct key already exists fails with ErrDuplicateRoom.
	CreateRoom(ctx context.Context, room *domain.ChatRoom, memberIDs []string) error
	// FindDirectRoom returns the non-group room whose member set is exactly {a, b}.
	FindDirectRoom(ctx context.Context, a, b string) (*domain.ChatRoom, error)
	GetRoom(ctx context.Context, id string) (*domain.ChatRoom, error)
	ListRoomsByAccount(ctx context.Context, accountID string) ([]*domain.ChatRoom, error)
	IsMember(ctx context.Context, roomID, accountID string) (bool, error)
	// CreateMessage appends the message and bumps the room's updated_at.
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	// ListMessages returns the newest limit messages after skipping offset, oldest first.
	ListMessages(ctx context.Context, roomID string, limit, offset int) ([]*domain.ChatMessage, error)
}
