package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 20
	sendBufferSize = 256
	commandTimeout = 10 * time.Second
)

var errUnknownEvent = errors.New("unknown event")

// Client is one WebSocket connection of an authenticated account
type Client struct {
	gateway   *Gateway
	conn      *websocket.Conn
	send      chan []byte
	accountID string
}

func newClient(g *Gateway, conn *websocket.Conn, accountID string) *Client {
	return &Client{
		gateway:   g,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		accountID: accountID,
	}
}

func (c *Client) principal() domain.Principal {
	return domain.Principal{AccountID: c.accountID}
}

func (c *Client) readPump(ctx context.Context) {
	hub := c.gateway.hub
	defer func() {
		hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gateway.logger.Debug("Gateway read failed", zap.String("account_id", c.accountID), zap.Error(err))
			}
			return
		}

		var in inboundFrame
		if err := json.Unmarshal(data, &in); err != nil {
			hub.sendTo(c, Frame{Event: EventError, Data: errorPayload{Error: "malformed frame"}})
			continue
		}

		c.handle(ctx, in)
	}
}

func (c *Client) handle(ctx context.Context, in inboundFrame) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var (
		result any
		err    error
	)

	switch in.Event {
	case CommandJoin:
		result, err = c.join(ctx, in.Data)
	case CommandLeave:
		result, err = c.leave(in.Data)
	case CommandMessage:
		result, err = c.message(ctx, in.Data)
	case CommandTyping:
		result, err = c.typing(in.Data)
	default:
		err = errUnknownEvent
	}

	c.reply(in, result, err)
}

func (c *Client) reply(in inboundFrame, result any, err error) {
	hub := c.gateway.hub

	if err != nil {
		payload := errorPayload{Error: c.errorMessage(in.Event, err)}
		if in.ID != nil {
			hub.sendTo(c, Frame{Event: EventAck, ID: in.ID, Data: payload})
		} else {
			hub.sendTo(c, Frame{Event: EventError, Data: payload})
		}
		return
	}

	if in.ID != nil {
		hub.sendTo(c, Frame{Event: EventAck, ID: in.ID, Data: result})
	}
}

// errorMessage exposes domain messages and hides everything else
func (c *Client) errorMessage(event string, err error) string {
	var domainErr *domain.Error
	switch {
	case errors.As(err, &domainErr):
		return domainErr.Message
	case errors.Is(err, errUnknownEvent), errors.Is(err, errBadPayload):
		return err.Error()
	default:
		c.gateway.logger.Error("Gateway command failed",
			zap.String("event", event),
			zap.String("account_id", c.accountID),
			zap.Error(err),
		)
		return "internal error"
	}
}

var errBadPayload = errors.New("invalid payload")

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || json.Unmarshal(data, v) != nil {
		return errBadPayload
	}
	return nil
}

func (c *Client) join(ctx context.Context, data json.RawMessage) (any, error) {
	var p roomPayload
	if err := decode(data, &p); err != nil || p.RoomID == "" {
		return nil, errBadPayload
	}

	// GetRoom rejects callers that are not members.
	if _, err := c.gateway.chat.GetRoom(ctx, c.principal(), p.RoomID); err != nil {
		return nil, err
	}

	c.gateway.hub.subscribe(roomChannel(p.RoomID), c)
	return p, nil
}

func (c *Client) leave(data json.RawMessage) (any, error) {
	var p roomPayload
	if err := decode(data, &p); err != nil || p.RoomID == "" {
		return nil, errBadPayload
	}

	c.gateway.hub.unsubscribe(roomChannel(p.RoomID), c)
	return p, nil
}

func (c *Client) message(ctx context.Context, data json.RawMessage) (any, error) {
	var p messagePayload
	if err := decode(data, &p); err != nil || p.RoomID == "" {
		return nil, errBadPayload
	}

	msg, err := c.gateway.chat.SendMessage(ctx, c.principal(), p.RoomID, p.Content, domain.MessageType(p.Type))
	if err != nil {
		return nil, err
	}

	c.gateway.hub.PublishMessage(msg)
	return dto.NewChatMessageResponse(msg), nil
}

func (c *Client) typing(data json.RawMessage) (any, error) {
	var p typingPayload
	if err := decode(data, &p); err != nil || p.RoomID == "" {
		return nil, errBadPayload
	}

	channel := roomChannel(p.RoomID)
	if !c.gateway.hub.subscribed(channel, c) {
		return nil, domain.ErrNotRoomMember
	}

	c.gateway.hub.broadcast(channel, Frame{
		Event: EventTyping,
		Data:  typingEvent{RoomID: p.RoomID, UserID: c.accountID, IsTyping: p.IsTyping},
	}, c)
	return p, nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
