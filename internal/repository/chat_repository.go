package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/pkg/database"
)

// chatRepository implements ChatRepository interface
type chatRepository struct {
	db *database.Postgres
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *database.Postgres) ChatRepository {
	return &chatRepository{db: db}
}

// CreateRoom creates a room with its members
func (r *chatRepository) CreateRoom(ctx context.Context, room *domain.ChatRoom, memberIDs []string) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = room.CreatedAt

	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chat_rooms (id, name, is_group, archived, direct_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			room.ID,
			room.Name,
			room.IsGroup,
			room.Archived,
			room.DirectKey,
			room.CreatedAt,
			room.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("chat room already exists: %w", ErrDuplicateRoom)
			}
			return fmt.Errorf("failed to create chat room: %w", err)
		}

		for _, memberID := range memberIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO chat_room_members (room_id, account_id, joined_at)
				VALUES ($1, $2, $3)
			`, room.ID, memberID, room.CreatedAt)
			if err != nil {
				if isForeignKeyViolation(err) {
					return fmt.Errorf("account %s not found: %w", memberID, ErrNotFound)
				}
				return fmt.Errorf("failed to add chat room member: %w", err)
			}
		}

		return nil
	})
}

// FindDirectRoom looks up the one-on-one room by exact membership set
func (r *chatRepository) FindDirectRoom(ctx context.Context, a, b string) (*domain.ChatRoom, error) {
	query := `
		SELECT r.id
		FROM chat_rooms r
		JOIN chat_room_members m ON m.room_id = r.id
		WHERE r.is_group = FALSE
		GROUP BY r.id
		HAVING COUNT(*) = 2
		   AND COUNT(*) FILTER (WHERE m.account_id IN ($1, $2)) = 2
		LIMIT 1
	`

	var roomID string
	if err := r.db.DB.QueryRowContext(ctx, query, a, b).Scan(&roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("direct room not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find direct room: %w", err)
	}

	return r.GetRoom(ctx, roomID)
}

// GetRoom retrieves a room with its members
func (r *chatRepository) GetRoom(ctx context.Context, id string) (*domain.ChatRoom, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("chat room with id %s not found: %w", id, ErrNotFound)
	}

	query := `
		SELECT id, name, is_group, archived, direct_key, created_at, updated_at
		FROM chat_rooms
		WHERE id = $1
	`

	room, err := scanRoom(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat room with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get chat room: %w", err)
	}

	if err := r.loadMembers(ctx, []*domain.ChatRoom{room}); err != nil {
		return nil, err
	}

	return room, nil
}

// ListRoomsByAccount lists the non-archived rooms of an account, most recently active first
func (r *chatRepository) ListRoomsByAccount(ctx context.Context, accountID string) ([]*domain.ChatRoom, error) {
	query := `
		SELECT r.id, r.name, r.is_group, r.archived, r.direct_key, r.created_at, r.updated_at
		FROM chat_rooms r
		JOIN chat_room_members m ON m.room_id = r.id
		WHERE m.account_id = $1 AND r.archived = FALSE
		ORDER BY r.updated_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*domain.ChatRoom, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat rooms: %w", err)
	}

	if err := r.loadMembers(ctx, rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

// IsMember reports whether an account belongs to a room
func (r *chatRepository) IsMember(ctx context.Context, roomID, accountID string) (bool, error) {
	if _, err := uuid.Parse(roomID); err != nil {
		return false, nil
	}

	query := `SELECT EXISTS (SELECT 1 FROM chat_room_members WHERE room_id = $1 AND account_id = $2)`

	var exists bool
	if err := r.db.DB.QueryRowContext(ctx, query, roomID, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check chat room membership: %w", err)
	}

	return exists, nil
}

// CreateMessage persists a message and touches its room
func (r *chatRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			WITH inserted AS (
				INSERT INTO chat_messages (id, room_id, sender_id, content, type, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING sender_id
			)
			SELECT a.name FROM inserted JOIN accounts a ON a.id = inserted.sender_id
		`,
			msg.ID,
			msg.RoomID,
			msg.SenderID,
			msg.Content,
			string(msg.Type),
			msg.CreatedAt,
		).Scan(&msg.SenderName)
		if err != nil {
			return fmt.Errorf("failed to create chat message: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE chat_rooms SET updated_at = $2 WHERE id = $1`, msg.RoomID, msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to touch chat room: %w", err)
		}

		return nil
	})
}

// ListMessages returns a page of messages in chronological order
func (r *chatRepository) ListMessages(ctx context.Context, roomID string, limit, offset int) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, room_id, sender_id, sender_name, content, type, created_at
		FROM (
			SELECT m.id, m.room_id, m.sender_id, a.name AS sender_name, m.content, m.type, m.created_at
			FROM chat_messages m
			JOIN accounts a ON a.id = m.sender_id
			WHERE m.room_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2 OFFSET $3
		) page
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.ChatMessage, 0, limit)
	for rows.Next() {
		msg := &domain.ChatMessage{}
		var msgType string

		if err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Content,
			&msgType,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}

		msg.Type = domain.MessageType(msgType)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return messages, nil
}

func (r *chatRepository) loadMembers(ctx context.Context, rooms []*domain.ChatRoom) error {
	if len(rooms) == 0 {
		return nil
	}

	byID := make(map[string]*domain.ChatRoom, len(rooms))
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
		ids = append(ids, room.ID)
	}

	query := `
		SELECT m.room_id, a.id, a.name, a.avatar
		FROM chat_room_members m
		JOIN accounts a ON a.id = m.account_id
		WHERE m.room_id = ANY($1)
		ORDER BY m.joined_at, a.id
	`

	rows, err := r.db.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load chat room members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var roomID string
		var member domain.ChatMember
		var avatar sql.NullString

		if err := rows.Scan(&roomID, &member.AccountID, &member.Name, &avatar); err != nil {
			return fmt.Errorf("failed to scan chat room member: %w", err)
		}

		member.Avatar = nullStringPtr(avatar)
		if room, ok := byID[roomID]; ok {
			room.Members = append(room.Members, member)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate chat room members: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*domain.ChatRoom, error) {
	room := &domain.ChatRoom{}
	var name, directKey sql.NullString

	err := row.Scan(
		&room.ID,
		&name,
		&room.IsGroup,
		&room.Archived,
		&directKey,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	room.Name = nullStringPtr(name)
	room.DirectKey = nullStringPtr(directKey)

	return room, nil
}
