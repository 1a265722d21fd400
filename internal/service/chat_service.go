package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/repository"
	"github.com/prperemyshlev/spotlight-api/pkg/observability"
	"go.uber.org/zap"
)

const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	MaxMessageLength = 5000
	minRoomMembers   = 2
)

// chatService implements ChatService interface
type chatService struct {
	chatRepo    repository.ChatRepository
	accountRepo repository.AccountRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	chatRepo repository.ChatRepository,
	accountRepo repository.AccountRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) ChatService {
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &chatService{
		chatRepo:    chatRepo,
		accountRepo: accountRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// ListRooms lists the caller's active rooms
func (s *chatService) ListRooms(ctx context.Context, principal domain.Principal) ([]*domain.ChatRoom, error) {
	rooms, err := s.chatRepo.ListRoomsByAccount(ctx, principal.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom returns a room the caller belongs to
func (s *chatService) GetRoom(ctx context.Context, principal domain.Principal, roomID string) (*domain.ChatRoom, error) {
	room, err := s.chatRepo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrChatRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if !room.HasMember(principal.AccountID) {
		return nil, domain.ErrNotRoomMember
	}

	return room, nil
}

// FindOrCreateDirectRoom returns the one-on-one room between the caller and otherID,
// creating it on first contact
func (s *chatService) FindOrCreateDirectRoom(ctx context.Context, principal domain.Principal, otherID string) (*domain.ChatRoom, error) {
	if otherID == principal.AccountID {
		return nil, domain.ErrInvalidRoomMembers
	}

	room, err := s.chatRepo.FindDirectRoom(ctx, principal.AccountID, otherID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find direct room: %w", err)
	}

	if _, err := s.accountRepo.GetByID(ctx, otherID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	key := domain.DirectKey(principal.AccountID, otherID)
	room = &domain.ChatRoom{DirectKey: &key}

	err = s.chatRepo.CreateRoom(ctx, room, []string{principal.AccountID, otherID})
	switch {
	case err == nil:
		s.logger.Info("Direct room created", zap.String("room_id", room.ID))
		return s.chatRepo.GetRoom(ctx, room.ID)
	case errors.Is(err, repository.ErrDuplicateRoom):
		// A concurrent request created the room first.
		return s.chatRepo.FindDirectRoom(ctx, principal.AccountID, otherID)
	case errors.Is(err, repository.ErrNotFound):
		return nil, domain.ErrUserNotFound
	default:
		return nil, fmt.Errorf("failed to create direct room: %w", err)
	}
}

// CreateGroupRoom creates a group room with the caller and memberIDs
func (s *chatService) CreateGroupRoom(ctx context.Context, principal domain.Principal, name *string, memberIDs []string) (*domain.ChatRoom, error) {
	seen := map[string]struct{}{principal.AccountID: {}}
	members := []string{principal.AccountID}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}

	if len(members) < minRoomMembers {
		return nil, domain.ErrInvalidRoomMembers
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		name = optional(trimmed)
	}

	room := &domain.ChatRoom{Name: name, IsGroup: true}
	if err := s.chatRepo.CreateRoom(ctx, room, members); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create group room: %w", err)
	}

	s.logger.Info("Group room created", zap.String("room_id", room.ID), zap.Int("members", len(members)))

	return s.chatRepo.GetRoom(ctx, room.ID)
}

// ListMessages returns one page of a room's history, oldest first. Page 0 holds the newest messages.
func (s *chatService) ListMessages(ctx context.Context, principal domain.Principal, roomID string, page, size int) ([]*domain.ChatMessage, error) {
	if err := s.requireMember(ctx, principal, roomID); err != nil {
		return nil, err
	}

	page = max(page, 0)
	if size <= 0 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)

	messages, err := s.chatRepo.ListMessages(ctx, roomID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// SendMessage persists a message from the caller
func (s *chatService) SendMessage(ctx context.Context, principal domain.Principal, roomID, content string, msgType domain.MessageType) (*domain.ChatMessage, error) {
	if msgType == "" {
		msgType = domain.MessageText
	}

	n := utf8.RuneCountInString(content)
	if n == 0 || n > MaxMessageLength || strings.TrimSpace(content) == "" || !msgType.Valid() {
		return nil, domain.ErrInvalidMessage
	}

	if err := s.requireMember(ctx, principal, roomID); err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		RoomID:   roomID,
		SenderID: principal.AccountID,
		Content:  content,
		Type:     msgType,
	}

	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.metrics.RecordMessage(ctx, string(msgType))

	return msg, nil
}

func (s *chatService) requireMember(ctx context.Context, principal domain.Principal, roomID string) error {
	member, err := s.chatRepo.IsMember(ctx, roomID, principal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return nil
	}

	// Distinguish a missing room from a foreign one.
	if _, err := s.chatRepo.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrChatRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	return domain.ErrNotRoomMember
}
