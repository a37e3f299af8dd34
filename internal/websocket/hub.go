package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/clipforge/api/internal/model"
)

// Client represents one dashboard subscriber
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans job status transitions out to every connected dashboard.
// Subscribers see the same events the polling endpoint would surface,
// just without the poll delay.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Slow consumer; drop it rather than block the feed.
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastTransition pushes a job's new state to all subscribers.
func (h *Hub) BroadcastTransition(job *model.Job) {
	msg := model.WSTransitionMessage{
		Type:      model.WSMessageTypeTransition,
		JobID:     job.ID,
		Status:    job.Status,
		Headline:  job.Headline,
		ResultURL: job.ResultURL,
	}
	if job.Error != nil {
		msg.Error = *job.Error
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal transition message: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("Transition broadcast dropped: hub queue full")
	}
}

// HandleConnection pumps messages to a dashboard connection until it
// goes away. Runs on the websocket handler's goroutine.
func (h *Hub) HandleConnection(conn *websocket.Conn) {
	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 64),
	}
	h.register <- client
	defer func() {
		h.unregister <- client
		conn.Close()
	}()

	// Reader goroutine exists only to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
