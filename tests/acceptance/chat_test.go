package acceptance

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
)

func (s *Suite) TestDirectRoom_IsReused() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")

	var first, second dto.ChatRoomResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodPost, "/api/chat/"+bob.User.ID, alice.Tokens.AccessToken, nil, &first))
	s.Require().Equal(http.StatusOK, s.request(http.MethodPost, "/api/chat/"+alice.User.ID, bob.Tokens.AccessToken, nil, &second))

	s.Equal(first.ID, second.ID)
	s.False(first.IsGroup)
	s.Len(first.Members, 2)
}

func (s *Suite) TestGroupRoom_NonMemberForbidden() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")
	carol := s.register("Carol", "carol@example.com")

	name := "Design"
	var room dto.ChatRoomResponse
	s.Require().Equal(http.StatusCreated, s.request(http.MethodPost, "/api/chat", alice.Tokens.AccessToken, dto.CreateGroupRoomRequest{
		Name:    &name,
		UserIDs: []string{bob.User.ID},
	}, &room))
	s.True(room.IsGroup)

	var errResp dto.ErrorResponse
	s.Equal(http.StatusForbidden, s.request(http.MethodGet, "/api/chat/"+room.ID, carol.Tokens.AccessToken, nil, &errResp))
	s.Equal("NOT_A_ROOM_MEMBER", errResp.Code)
}

func (s *Suite) TestMessages_SendAndList() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")

	var room dto.ChatRoomResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodPost, "/api/chat/"+bob.User.ID, alice.Tokens.AccessToken, nil, &room))

	for _, content := range []string{"one", "two", "three"} {
		s.Require().Equal(http.StatusCreated, s.request(http.MethodPost, "/api/chat/"+room.ID+"/messages", alice.Tokens.AccessToken, dto.SendMessageRequest{
			Content: content,
		}, nil))
	}

	var page []dto.ChatMessageResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodGet, "/api/chat/"+room.ID+"/messages?page=0&size=2", bob.Tokens.AccessToken, nil, &page))
	s.Require().Len(page, 2)
	s.Equal("two", page[0].Content)
	s.Equal("three", page[1].Content)
	s.Equal("TEXT", page[0].Type)
}

func (s *Suite) TestGateway_DeliversRoomMessages() {
	alice := s.register("Alice", "alice@example.com")
	bob := s.register("Bob", "bob@example.com")

	var room dto.ChatRoomResponse
	s.Require().Equal(http.StatusOK, s.request(http.MethodPost, "/api/chat/"+bob.User.ID, alice.Tokens.AccessToken, nil, &room))

	wsURL := "ws" + strings.TrimPrefix(s.BaseURL, "http") + "/api/ws?token=" + alice.Tokens.AccessToken
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	resp.Body.Close()
	defer conn.Close()

	s.Require().NoError(conn.WriteJSON(map[string]any{
		"event": "join",
		"id":    1,
		"data":  map[string]string{"roomId": room.ID},
	}))

	var ack struct {
		Event string          `json:"event"`
		ID    *int64          `json:"id"`
		Data  json.RawMessage `json:"data"`
	}
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&ack))
	s.Equal("ack", ack.Event)
	s.Require().NotNil(ack.ID)
	s.Equal(int64(1), *ack.ID)

	s.Require().Equal(http.StatusCreated, s.request(http.MethodPost, "/api/chat/"+room.ID+"/messages", bob.Tokens.AccessToken, dto.SendMessageRequest{
		Content: "hello alice",
	}, nil))

	var event struct {
		Event string                  `json:"event"`
		Data  dto.ChatMessageResponse `json:"data"`
	}
	s.Require().NoError(conn.ReadJSON(&event))
	s.Equal("message", event.Event)
	s.Equal("hello alice", event.Data.Content)
	s.Equal(bob.User.ID, event.Data.SenderID)
}

func (s *Suite) TestGateway_RejectsInvalidToken() {
	wsURL := "ws" + strings.TrimPrefix(s.BaseURL, "http") + "/api/ws?token=invalid"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().ErrorIs(err, websocket.ErrBadHandshake)
	s.Require().NotNil(resp)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
