// Package broadcast рассылает снимки заказов подключённым WebSocket-клиентам.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/access"
	"github.com/mmeshcher/beverages-system/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBuffer     = 32
)

// SharedTopic получают работники, администраторы и руководство.
const SharedTopic = "/topic/orders"

// UserTopic возвращает личный канал пользователя.
func UserTopic(userID string) string {
	return "/user/" + userID + "/queue/orders"
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]struct{}
}

// Hub хранит подключённых клиентов и доставляет им сообщения по каналам.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *zap.Logger
}

// NewHub создаёт пустой хаб.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Publish отправляет сообщение всем клиентам, подписанным на канал.
// Клиенты с переполненным буфером отключаются.
func (h *Hub) Publish(_ context.Context, topic string, payload []byte) error {
	var slow []*client

	h.mu.RLock()
	for c := range h.clients {
		if _, ok := c.topics[topic]; !ok {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("ws client too slow, disconnecting", zap.String("topic", topic))
		h.unregister(c)
	}
	return nil
}

// ServeClient подписывает соединение на личный канал пользователя и, если роль позволяет,
// на общий канал. Блокируется, пока клиент не отключится.
func (h *Hub) ServeClient(conn *websocket.Conn, userID string, role model.Role) {
	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		topics: map[string]struct{}{UserTopic(userID): {}},
	}
	if access.ReceivesSharedFeed(role) {
		c.topics[SharedTopic] = struct{}{}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("ws client connected", zap.String("userID", userID), zap.String("role", string(role)))

	go c.writePump(h.logger)
	c.readPump()

	h.unregister(c)
	h.logger.Info("ws client disconnected", zap.String("userID", userID))
}

// Clients возвращает число подключённых клиентов.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close отключает всех клиентов.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump читает входящие кадры только ради pong и обнаружения разрыва.
func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("ws ping failed", zap.Error(err))
				return
			}
		}
	}
}
