package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	TaskID  uint   `json:"task_id,omitempty"`
}

// client owns one socket. Only its writer goroutine writes to conn.
type client struct {
	userID    uint
	conn      *websocket.Conn
	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub tracks open board connections per user so task mutations can tell every
// user in the audience to refetch.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*client]bool
	upgrader websocket.Upgrader
	logger   *log.Logger
}

func NewHub(allowedOrigins []string, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &Hub{
		clients: make(map[uint]map[*client]bool),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]bool)
	}
	h.clients[c.userID][c] = true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, exists := h.clients[c.userID]; exists {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, c.userID)
		}
	}
}

// Connections reports how many sockets a user has open.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NotifyRefresh queues a refresh event for every connection of the given
// users and never blocks on a socket. A client whose queue is full is
// disconnected; it refetches everything when it reconnects.
func (h *Hub) NotifyRefresh(userIDs []uint, taskID uint, reason string) {
	h.mu.RLock()
	var targets []*client
	for _, userID := range userIDs {
		for c := range h.clients[userID] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	event := Event{Type: "refresh", Message: reason, TaskID: taskID}

	for _, c := range targets {
		select {
		case c.send <- event:
		case <-c.done:
		default:
			h.logger.WithField("user_id", c.userID).Warn("websocket client too slow, disconnecting")
			h.unregister(c)
			c.close()
		}
	}
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.WithError(err).Warn("set initial read deadline")
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		conn.Close()
		return
	}
	if err := conn.WriteJSON(Event{Type: "connected", Message: "WebSocket connection established"}); err != nil {
		h.logger.WithError(err).Warn("send welcome message")
		conn.Close()
		return
	}

	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan Event, sendBuffer),
		done:   make(chan struct{}),
	}
	h.register(c)

	defer func() {
		h.unregister(c)
		c.close()
		h.logger.WithField("user_id", userID).Debug("websocket connection closed")
	}()

	go h.writePump(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).WithField("user_id", userID).Warn("websocket read error")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case event := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				h.logger.WithError(err).WithField("user_id", c.userID).Warn("broadcast refresh failed")
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		}
	}
}
