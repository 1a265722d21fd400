package gateway

import "encoding/json"

// Server-to-client events
const (
	EventUserOnline  = "user_online"
	EventUserOffline = "user_offline"
	EventMessage     = "message"
	EventTyping      = "typing"
	EventAck         = "ack"
	EventError       = "error"
)

// Client-to-server commands
const (
	CommandJoin    = "join"
	CommandLeave   = "leave"
	CommandMessage = "message"
	CommandTyping  = "typing"
)

// inboundFrame is a command sent by a client. ID is echoed in the ack when present.
type inboundFrame struct {
	Event string          `json:"event"`
	ID    *int64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// Frame is an event sent to clients
type Frame struct {
	Event string `json:"event"`
	ID    *int64 `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type messagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type typingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type typingEvent struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type presenceEvent struct {
	UserID string `json:"userId"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

func userChannel(accountID string) string {
	return "user:" + accountID
}

func roomChannel(roomID string) string {
	return "room:" + roomID
}
