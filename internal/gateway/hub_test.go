package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receivedFrame struct {
	Event string          `json:"event"`
	ID    *int64          `json:"id"`
	Data  json.RawMessage `json:"data"`
}

func testClient(accountID string, buffer int) *Client {
	return &Client{accountID: accountID, send: make(chan []byte, buffer)}
}

func pending(t *testing.T, c *Client) receivedFrame {
	t.Helper()

	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send buffer closed")
		var f receivedFrame
		require.NoError(t, json.Unmarshal(payload, &f))
		return f
	default:
		t.Fatal("no frame pending")
		return receivedFrame{}
	}
}

func assertIdle(t *testing.T, c *Client) {
	t.Helper()

	select {
	case payload := <-c.send:
		t.Fatalf("unexpected frame %s", payload)
	default:
	}
}

func TestHub_Presence(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := testClient("alice", 8)
	hub.register(alice)
	assert.True(t, hub.Online("alice"))
	assertIdle(t, alice)

	bob := testClient("bob", 8)
	hub.register(bob)
	f := pending(t, alice)
	assert.Equal(t, EventUserOnline, f.Event)
	assert.JSONEq(t, `{"userId":"bob"}`, string(f.Data))
	assertIdle(t, bob)

	// A second connection of the same account is not announced.
	bobTablet := testClient("bob", 8)
	hub.register(bobTablet)
	assertIdle(t, alice)

	hub.unregister(bob)
	assert.True(t, hub.Online("bob"))
	assertIdle(t, alice)

	hub.unregister(bobTablet)
	assert.False(t, hub.Online("bob"))
	f = pending(t, alice)
	assert.Equal(t, EventUserOffline, f.Event)
	assert.JSONEq(t, `{"userId":"bob"}`, string(f.Data))

	_, open := <-bobTablet.send
	assert.False(t, open)

	assert.NotPanics(t, func() { hub.unregister(bobTablet) })
}

func TestHub_RoomBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)

	alice, bob, carol := testClient("alice", 8), testClient("bob", 8), testClient("carol", 8)
	for _, c := range []*Client{alice, bob, carol} {
		hub.register(c)
	}
	for _, c := range []*Client{alice, bob, carol} {
		for len(c.send) > 0 {
			<-c.send
		}
	}

	hub.subscribe(roomChannel("r1"), alice)
	hub.subscribe(roomChannel("r1"), bob)
	assert.True(t, hub.subscribed(roomChannel("r1"), bob))
	assert.False(t, hub.subscribed(roomChannel("r1"), carol))

	hub.broadcast(roomChannel("r1"), Frame{Event: EventTyping, Data: typingEvent{RoomID: "r1", UserID: "alice", IsTyping: true}}, alice)
	assertIdle(t, alice)
	assert.Equal(t, EventTyping, pending(t, bob).Event)
	assertIdle(t, carol)

	hub.PublishMessage(&domain.ChatMessage{ID: "m1", RoomID: "r1", SenderID: "alice", SenderName: "Alice", Content: "hi", Type: domain.MessageText, CreatedAt: time.Now()})
	for _, c := range []*Client{alice, bob} {
		f := pending(t, c)
		assert.Equal(t, EventMessage, f.Event)
		var msg struct {
			ID      string `json:"id"`
			RoomID  string `json:"roomId"`
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(f.Data, &msg))
		assert.Equal(t, "m1", msg.ID)
		assert.Equal(t, "r1", msg.RoomID)
		assert.Equal(t, "hi", msg.Content)
	}
	assertIdle(t, carol)

	hub.unsubscribe(roomChannel("r1"), bob)
	hub.PublishMessage(&domain.ChatMessage{ID: "m2", RoomID: "r1"})
	assert.Equal(t, EventMessage, pending(t, alice).Event)
	assertIdle(t, bob)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(nil, nil)

	fast := testClient("fast", 8)
	slow := testClient("slow", 1)
	hub.register(slow)
	hub.register(fast)
	hub.subscribe(roomChannel("r1"), slow)
	hub.subscribe(roomChannel("r1"), fast)

	// slow's single slot is taken by the user_online frame for fast
	hub.PublishMessage(&domain.ChatMessage{ID: "m1", RoomID: "r1"})

	assert.False(t, hub.Online("slow"))
	assert.True(t, hub.Online("fast"))

	assert.Equal(t, EventMessage, pending(t, fast).Event)
	assert.Equal(t, EventUserOffline, pending(t, fast).Event)
}

func TestHub_SubscribeAfterUnregisterIsIgnored(t *testing.T) {
	hub := NewHub(nil, nil)

	c := testClient("alice", 8)
	hub.register(c)
	hub.unregister(c)

	hub.subscribe(roomChannel("r1"), c)
	assert.False(t, hub.subscribed(roomChannel("r1"), c))

	assert.NotPanics(t, func() {
		hub.sendTo(c, Frame{Event: EventAck})
	})
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil, nil)

	a, b := testClient("a", 8), testClient("b", 8)
	hub.register(a)
	hub.register(b)

	hub.Close()

	assert.False(t, hub.Online("a"))
	assert.False(t, hub.Online("b"))
}
