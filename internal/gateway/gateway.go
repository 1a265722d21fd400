package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prperemyshlev/spotlight-api/internal/service"
	"go.uber.org/zap"
)

// Gateway upgrades authenticated requests to chat WebSocket connections
type Gateway struct {
	hub      *Hub
	auth     service.AuthService
	chat     service.ChatService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewGateway creates a gateway. allowedOrigins limits browser handshakes; "*" accepts any origin.
func NewGateway(hub *Hub, auth service.AuthService, chat service.ChatService, allowedOrigins []string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gateway{
		hub:    hub,
		auth:   auth,
		chat:   chat,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Hub returns the connection registry used for publishing
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// Serve authenticates the token query parameter and runs the connection until it closes
func (g *Gateway) Serve(c *gin.Context) {
	principal, err := g.auth.ValidateToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(g, conn, principal.AccountID)
	g.hub.register(client)

	go client.writePump()
	client.readPump(c.Request.Context())
}
