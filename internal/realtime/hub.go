// Package realtime pushes platform events (upload progress, seminar status) to websocket
// subscribers. Events published in one process reach clients of every server instance
// through the Redis bridge.
package realtime

import (
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/metrics"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// TopicUploads carries upload_task.updated events for admins.
	TopicUploads = "uploads"
)

// Event names.
const (
	EventUploadUpdated = "upload_task.updated"
	EventSeminarStatus = "seminar.status"
)

// SeminarTopic is the topic of one seminar's status events.
func SeminarTopic(id string) string { return "seminar:" + id }

// UserTopic is the private topic of one user.
func UserTopic(id string) string { return "user:" + id }

// Publisher delivers an event to every subscriber of a topic.
type Publisher interface {
	Publish(topic, event string, payload interface{})
}

// Bridge fans events out across processes.
type Bridge interface {
	Publish(topic, event string, data []byte) error
	Subscribe(topic string, handler func(event string, data []byte)) (cancel func(), err error)
}

// Hub maintains topic -> set of connections and broadcasts messages.
type Hub struct {
	topics map[string]map[string]*Client
	subs   map[string]func() // cancel bridge subscription per topic
	mu     sync.RWMutex
	logger *zap.Logger
	bridge Bridge
}

// NewHub creates a hub. A nil bridge keeps events local to this process.
func NewHub(logger *zap.Logger, bridge Bridge) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		topics: make(map[string]map[string]*Client),
		subs:   make(map[string]func()),
		logger: logger,
		bridge: bridge,
	}
}

// Register adds a client to its topic. Starts the bridge subscription for the first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.topics[c.Topic] == nil {
		h.topics[c.Topic] = make(map[string]*Client)
		if h.bridge != nil {
			topic := c.Topic
			cancel, err := h.bridge.Subscribe(topic, func(event string, data []byte) {
				h.Broadcast(topic, event, json.RawMessage(data))
			})
			if err != nil {
				h.logger.Warn("bridge subscribe failed", zap.String("topic", topic), zap.Error(err))
			} else {
				h.subs[topic] = cancel
			}
		}
	}
	h.topics[c.Topic][c.ID] = c
	h.mu.Unlock()
	metrics.WebSocketConnections.Inc()
	h.logger.Debug("client subscribed", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

// Unregister removes a client. Cancels the bridge subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.topics[c.Topic]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
			metrics.WebSocketConnections.Dec()
		}
		if len(m) == 0 {
			delete(h.topics, c.Topic)
			if cancel, ok := h.subs[c.Topic]; ok {
				cancel()
				delete(h.subs, c.Topic)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client unsubscribed", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

// Broadcast sends a message to the local clients of a topic.
func (h *Hub) Broadcast(topic, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal event", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Topic: topic, Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.topics[topic] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to subscribers on every instance. With a bridge the event is only
// published, so the bridge subscription broadcasts it once, including to local clients.
func (h *Hub) Publish(topic, event string, payload interface{}) {
	if h.bridge == nil {
		h.Broadcast(topic, event, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.bridge.Publish(topic, event, data); err != nil {
		h.logger.Warn("bridge publish failed, broadcasting locally", zap.String("topic", topic), zap.Error(err))
		h.Broadcast(topic, event, json.RawMessage(data))
	}
}

// Count returns the number of local clients subscribed to a topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close cancels every bridge subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, cancel := range h.subs {
		cancel()
		delete(h.subs, topic)
	}
}

func validTopic(topic string) bool {
	if topic == TopicUploads {
		return true
	}
	for _, prefix := range []string{"seminar:", "user:"} {
		if strings.HasPrefix(topic, prefix) && len(topic) > len(prefix) {
			return true
		}
	}
	return false
}
