package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
	"github.com/prperemyshlev/spotlight-api/internal/service"
)

// MessagePublisher fans a persisted message out to live subscribers of its room
type MessagePublisher interface {
	PublishMessage(msg *domain.ChatMessage)
}

// ChatHandler handles chat room and message requests
type ChatHandler struct {
	chatService service.ChatService
	publisher   MessagePublisher
}

// NewChatHandler creates a new chat handler. publisher may be nil.
func NewChatHandler(chatService service.ChatService, publisher MessagePublisher) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		publisher:   publisher,
	}
}

func roomResponses(rooms []*domain.ChatRoom) []dto.ChatRoomResponse {
	out := make([]dto.ChatRoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, dto.NewChatRoomResponse(r))
	}
	return out
}

// ListRooms returns the caller's rooms, most recently active first
// @Security BearerAuth
// @Router /chat [get]
func (h *ChatHandler) ListRooms(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	rooms, err := h.chatService.ListRooms(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, roomResponses(rooms))
}

// GetRoom returns one room of the caller
// @Security BearerAuth
// @Router /chat/{id} [get]
func (h *ChatHandler) GetRoom(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var uri dto.IDParam
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, err)
		return
	}

	room, err := h.chatService.GetRoom(c.Request.Context(), principal, uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewChatRoomResponse(room))
}

// CreateDirectRoom finds or creates the one-on-one room with the account in the path
// @Security BearerAuth
// @Router /chat/{id} [post]
func (h *ChatHandler) CreateDirectRoom(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var uri dto.IDParam
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, err)
		return
	}

	room, err := h.chatService.FindOrCreateDirectRoom(c.Request.Context(), principal, uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewChatRoomResponse(room))
}

// CreateGroupRoom creates a group room with the caller and the listed accounts
// @Security BearerAuth
// @Router /chat [post]
func (h *ChatHandler) CreateGroupRoom(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateGroupRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	room, err := h.chatService.CreateGroupRoom(c.Request.Context(), principal, req.Name, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewChatRoomResponse(room))
}

// ListMessages returns a page of room history in chronological order
// @Security BearerAuth
// @Param page query int false "0-based page, newest first"
// @Param size query int false "page size, 1-100"
// @Router /chat/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var uri dto.IDParam
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, err)
		return
	}

	var query dto.MessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondValidationError(c, err)
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), principal, uri.ID, query.Page, query.Size)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, dto.NewChatMessageResponse(m))
	}

	c.JSON(http.StatusOK, out)
}

// SendMessage persists a message and publishes it to the room
// @Security BearerAuth
// @Router /chat/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var uri dto.IDParam
	if err := c.ShouldBindUri(&uri); err != nil {
		respondValidationError(c, err)
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), principal, uri.ID, req.Content, domain.MessageType(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishMessage(msg)
	}

	c.JSON(http.StatusCreated, dto.NewChatMessageResponse(msg))
}
