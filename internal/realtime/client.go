package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/pkg/response"
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Topic string          `json:"topic,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one websocket subscription.
type Client struct {
	ID     string
	Topic  string
	UserID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan WSMessage
}

// ServeWs handles GET /ws?topic=&token=. The uploads topic is admin only and user topics
// are private to their owner.
func ServeWs(hub *Hub, verifier auth.Verifier, allowedOrigins []string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return func(c *gin.Context) {
		topic := c.Query("topic")
		token := c.Query("token")
		if topic == "" || token == "" {
			response.BadRequest(c, "topic and token required")
			return
		}
		if !validTopic(topic) {
			response.BadRequest(c, "unknown topic")
			return
		}
		id, err := verifier.Verify(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		if !canSubscribe(id, topic) {
			response.Forbidden(c, "insufficient permissions")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &Client{
			ID:     uuid.New().String(),
			Topic:  topic,
			UserID: id.UserID,
			hub:    hub,
			conn:   conn,
			send:   make(chan WSMessage, 256),
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func canSubscribe(id *auth.Identity, topic string) bool {
	if id.IsAdmin() {
		return true
	}
	switch {
	case topic == TopicUploads:
		return false
	case strings.HasPrefix(topic, "user:"):
		return topic == UserTopic(id.UserID)
	default:
		return true
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set["*"] || set[origin]
	}
}

// readPump only services control frames; subscribers do not send events.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
