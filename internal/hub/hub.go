// Package hub streams Game State snapshots to websocket clients.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"adventure-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Message - кадр, отправляемый клиенту.
type Message struct {
	Type  string           `json:"type"`
	State models.GameState `json:"state"`
}

const MessageTypeSnapshot = "snapshot"

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub рассылает снимки всем подключенным клиентам. Новый клиент сразу
// получает последний снимок.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	last     []byte
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func New(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients: make(map[string]*client),
		logger:  logger.Named("SnapshotHub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// клиенты вне браузера Origin не присылают
		return origin == "" || set[origin]
	}
}

// Publish рассылает снимок. Клиенты с переполненной очередью отключаются.
func (h *Hub) Publish(_ context.Context, gs models.GameState) error {
	frame, err := json.Marshal(Message{Type: MessageTypeSnapshot, State: gs})
	if err != nil {
		return fmt.Errorf("marshal snapshot frame: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = frame
	for id, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("Client send queue full, disconnecting", zap.String("client_id", id))
			h.removeLocked(id)
		}
	}
	return nil
}

// Clients возвращает число подключенных клиентов.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS обновляет соединение до websocket и подписывает клиента.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	log := h.logger.With(zap.String("client_id", cl.id))

	h.mu.Lock()
	h.clients[cl.id] = cl
	if h.last != nil {
		cl.send <- h.last
	}
	h.mu.Unlock()
	log.Info("WebSocket client connected")

	go h.writePump(cl, log)
	go h.readPump(cl, log)
}

// Close отключает всех клиентов.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.clients {
		h.removeLocked(id)
	}
}

func (h *Hub) removeLocked(id string) {
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.send)
	}
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

// readPump нужен только для обработки close/pong, входящие сообщения игнорируются.
func (h *Hub) readPump(c *client, log *zap.Logger) {
	defer func() {
		h.unregister(c.id)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			log.Info("WebSocket client disconnected")
			return
		}
	}
}

func (h *Hub) writePump(c *client, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn("Failed to write snapshot", zap.Error(err))
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
