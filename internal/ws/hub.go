package ws

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/bugline-dev/bugline/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second
	maxMessageSize  = 512
)

// client wraps a connection with a write lock. Refresh broadcasts arrive from
// request goroutines while the ping ticker writes from its own, and gorilla
// permits only one concurrent writer per connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub tracks board subscribers per project so issue mutations can tell open
// boards to refetch. The client treats any refresh message as "reload the
// board", matching its optimistic-UI-plus-refetch model.
type Hub struct {
	projectClients map[string]map[*client]bool
	mu             sync.RWMutex

	// Serve pings every pingPeriod and expects the pong within pongWait.
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewHub() *Hub {
	return &Hub{
		projectClients: make(map[string]map[*client]bool),
		pongWait:       defaultPongWait,
		pingPeriod:     (defaultPongWait * 9) / 10,
	}
}

func (h *Hub) BroadcastRefresh(projectID uint) {
	key := fmt.Sprint(projectID)

	h.mu.RLock()
	clients, exists := h.projectClients[key]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy the clients so the registry lock is not held while writing
	clientsCopy := make([]*client, 0, len(clients))
	for cl := range clients {
		clientsCopy = append(clientsCopy, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clientsCopy {
		err := cl.writeJSON(map[string]string{
			"type":       "refresh",
			"message":    "Board data updated",
			"project_id": key,
		})

		if err != nil {
			log.Printf("Failed to broadcast refresh to client: %v", err)
			h.remove(key, cl)
			cl.conn.Close()
		}
	}
}

func (h *Hub) add(projectID string, cl *client) {
	h.mu.Lock()
	if h.projectClients[projectID] == nil {
		h.projectClients[projectID] = make(map[*client]bool)
	}
	h.projectClients[projectID][cl] = true
	h.mu.Unlock()
}

func (h *Hub) remove(projectID string, cl *client) {
	h.mu.Lock()
	if clients, exists := h.projectClients[projectID]; exists {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.projectClients, projectID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) clientCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projectClients[projectID])
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away. Browsers never ping on their own, so the server drives
// the keepalive: a ping every pingPeriod, with the pong handler and each read
// pushing the deadline out by pongWait.
func (h *Hub) Serve(c *gin.Context) {
	projectID := c.Param("project_id")

	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(h.pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(h.pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	cl := &client{conn: conn}
	h.add(projectID, cl)

	defer func() {
		h.remove(projectID, cl)
		conn.Close()
		log.Printf("WebSocket connection closed for project %s", projectID)
	}()

	err = cl.writeJSON(map[string]string{
		"type":       "connected",
		"message":    "WebSocket connection established",
		"project_id": projectID,
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(h.pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cl.ping(); err != nil {
					log.Printf("Ping failed for project %s: %v", projectID, err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(h.pongWait)); err != nil {
			log.Printf("Failed to set read deadline for project %s: %v", projectID, err)
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
