package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"learning-session/internal/database"
	"learning-session/internal/pkg/logger"
)

const (
	logModule    = "WEBSOCKET"
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenParser resolves a session token to its session id.
type TokenParser interface {
	ParseSessionToken(token string) (string, error)
}

// SessionLookup reports whether a session is still live.
type SessionLookup interface {
	Exists(sessionID string) bool
}

// Hub fans session updates out to connected browsers. With a Redis client it
// relays messages published on each session's channel, so any instance can
// publish; without one, updates are delivered through SendToSession only.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*connection
	redisClient *redis.Client
	tokens      TokenParser
	sessions    SessionLookup
	logger      logger.ILogger
	cancelFuncs map[string]context.CancelFunc
}

type connection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func NewHub(redisClient *redis.Client, tokens TokenParser, sessions SessionLookup, log logger.ILogger) *Hub {
	return &Hub{
		connections: make(map[string][]*connection),
		redisClient: redisClient,
		tokens:      tokens,
		sessions:    sessions,
		logger:      log,
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.tokens.ParseSessionToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.sessions != nil && !h.sessions.Exists(sessionID) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logModule, "WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	c := &connection{conn: conn}
	h.registerConnection(sessionID, c)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(sessionID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(sessionID string, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], c)

	// Start pub/sub subscription if this is the first connection for this session
	if len(h.connections[sessionID]) == 1 && h.redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[sessionID] = cancel
		go h.subscribeToPubSub(ctx, sessionID)
	}

	h.logger.Info(logModule, "WebSocket connected", map[string]interface{}{
		"session_id": sessionID,
		"total":      len(h.connections[sessionID]),
	})
}

func (h *Hub) unregisterConnection(sessionID string, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
		if cancel, ok := h.cancelFuncs[sessionID]; ok {
			cancel()
			delete(h.cancelFuncs, sessionID)
		}
	}

	h.logger.Info(logModule, "WebSocket disconnected", map[string]interface{}{"session_id": sessionID})
}

func (h *Hub) subscribeToPubSub(ctx context.Context, sessionID string) {
	pubsub := h.redisClient.Subscribe(ctx, database.SessionChannel(sessionID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(sessionID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	conns := append([]*connection(nil), h.connections[sessionID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			h.logger.Debug(logModule, "WebSocket write failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
}

// SendToSession sends a message directly to a session's clients (for use outside pub/sub)
func (h *Hub) SendToSession(sessionID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(sessionID, data)
}

// CloseSession disconnects every client of a session that has ended.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.RLock()
	conns := append([]*connection(nil), h.connections[sessionID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
			time.Now().Add(writeTimeout))
		c.writeMu.Unlock()
		c.conn.Close()
	}
}

func (h *Hub) connectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}
