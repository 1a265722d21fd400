package domain

import "time"

// MessageType is the kind of content a chat message carries
type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageImage MessageType = "IMAGE"
	MessageFile  MessageType = "FILE"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}

// ChatRoom is a one-on-one or group conversation
type ChatRoom struct {
	ID        string
	Name      *string
	IsGroup   bool
	Archived  bool
	DirectKey *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Members   []ChatMember
}

// HasMember reports whether accountID belongs to the room.
func (r *ChatRoom) HasMember(accountID string) bool {
	for _, m := range r.Members {
		if m.AccountID == accountID {
			return true
		}
	}
	return false
}

// ChatMember is a room member joined with the public part of its account
type ChatMember struct {
	AccountID string
	Name      string
	Avatar    *string
}

// ChatMessage is an append-only message in a room
type ChatMessage struct {
	ID         string
	RoomID     string
	SenderID   string
	SenderName string
	Content    string
	Type       MessageType
	CreatedAt  time.Time
}

// DirectKey returns the order-independent key of a one-on-one room between a and b.
func DirectKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
