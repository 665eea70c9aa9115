package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 256
	writeWait       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans notices out to every connected websocket client. Broadcasting
// never blocks an import: when the hub is saturated the message is dropped.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	logger     *logging.Logger
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger.Named("websocket"),
	}
}

func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mutex.Unlock()

			h.logger.Info("WebSocket client connected",
				zap.Int("client_count", clientCount))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mutex.Unlock()

			h.logger.Info("WebSocket client disconnected",
				zap.Int("client_count", clientCount))

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	recipientCount := 0
	failedCount := 0
	for client := range h.clients {
		select {
		case client.send <- message:
			recipientCount++
		default:
			h.logger.Warn("WebSocket client is not keeping up, removing client")
			delete(h.clients, client)
			close(client.send)
			failedCount++
		}
	}

	h.logger.Debug("Message broadcast completed",
		zap.Int("recipient_count", recipientCount),
		zap.Int("failed_count", failedCount))
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastNotice(event NoticeEvent) {
	event.BaseMessage = BaseMessage{
		Type:      MessageTypeNotice,
		Timestamp: event.Timestamp,
	}
	h.send(event, MessageTypeNotice)
}

func (h *Hub) send(event any, messageType MessageType) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal websocket event",
			zap.String("message_type", string(messageType)),
			zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
		h.logger.Debug("Broadcasting websocket event",
			zap.String("message_type", string(messageType)))
	default:
		h.logger.Warn("WebSocket broadcast buffer full, dropping event",
			zap.String("message_type", string(messageType)))
	}
}

func (h *Hub) ServeWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed",
			zap.Error(err))
		return err
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Unexpected WebSocket close error",
					zap.Error(err))
			}
			break
		}
	}
}

func (c *Client) writePump() {
	defer func() { _ = c.conn.Close() }()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
