package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gamexpress/storefront/pkg/logger"
)

const (
	// Rate limiting: messages accepted per second and client
	maxMessagesPerSecond = 10
)

// ClientMessage is a message sent by the browser.
type ClientMessage struct {
	Type string `json:"type"` // ping, refresh
}

// Client is one websocket connection of a visitor.
type Client struct {
	Hub       *Hub
	Conn      *Conn
	VisitorID string
	Send      chan []byte

	mu     sync.Mutex
	closed bool

	messageCount  int
	lastResetTime time.Time
	rateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, visitorID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		VisitorID: visitorID,
		Send:      make(chan []byte, 64),
	}
}

// Push queues a message without blocking. It reports false when the client
// is gone or its buffer is full.
func (c *Client) Push(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// PushJSON marshals v and queues it.
func (c *Client) PushJSON(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal websocket message", err, map[string]interface{}{
			"visitor_id": c.VisitorID,
		})
		return false
	}
	return c.Push(data)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Hub tracks the open connections of every visitor.
type Hub struct {
	// visitor id -> connections, one per open tab
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	stopOnce   sync.Once

	onMessage func(client *Client, msg ClientMessage)

	mu sync.RWMutex
}

// BroadcastMessage is delivered to every connection of one visitor.
type BroadcastMessage struct {
	VisitorID string
	Message   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
	}
}

// OnMessage sets the handler of client messages that passed rate limiting.
// It must be set before Run.
func (h *Hub) OnMessage(fn func(client *Client, msg ClientMessage)) {
	h.onMessage = fn
}

// Run processes registrations and broadcasts until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, list := range h.clients {
				for _, client := range list {
					client.close()
				}
			}
			h.clients = make(map[string][]*Client)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.VisitorID] = append(h.clients[client.VisitorID], client)
			sessions := len(h.clients[client.VisitorID])
			h.mu.Unlock()
			logger.Debug("WebSocket client registered", map[string]interface{}{
				"visitor_id":     client.VisitorID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			remaining := 0
			if list, ok := h.clients[client.VisitorID]; ok {
				newList := make([]*Client, 0, len(list))
				for _, c := range list {
					if c != client {
						newList = append(newList, c)
					}
				}
				if len(newList) == 0 {
					delete(h.clients, client.VisitorID)
				} else {
					h.clients[client.VisitorID] = newList
				}
				remaining = len(newList)
			}
			h.mu.Unlock()
			client.close()
			logger.Debug("WebSocket client unregistered", map[string]interface{}{
				"visitor_id":         client.VisitorID,
				"remaining_sessions": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.VisitorID] {
				if !client.Push(message.Message) {
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"visitor_id": message.VisitorID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop ends Run and closes every connection's queue.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// SendToVisitor queues a message for every open connection of a visitor.
func (h *Hub) SendToVisitor(visitorID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return err
	}

	select {
	case h.broadcast <- &BroadcastMessage{VisitorID: visitorID, Message: data}:
	default:
		// dropping is fine, the next cart change sends a full snapshot again
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"visitor_id": visitorID,
		})
	}
	return nil
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// IsVisitorOnline reports whether the visitor has an open connection.
func (h *Hub) IsVisitorOnline(visitorID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[visitorID]
	return ok
}

// Sessions returns how many connections a visitor has open.
func (h *Hub) Sessions(visitorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[visitorID])
}

// HandleClientMessage rate limits and dispatches a client message.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.rateMu.Lock()
	now := time.Now()
	if now.Sub(client.lastResetTime) >= time.Second {
		client.messageCount = 0
		client.lastResetTime = now
	}
	client.messageCount++
	count := client.messageCount
	client.rateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"visitor_id": client.VisitorID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"visitor_id": client.VisitorID,
			"error":      err.Error(),
		})
		return
	}

	switch msg.Type {
	case "ping":
		client.PushJSON(map[string]string{"type": "pong"})
	default:
		if h.onMessage != nil {
			h.onMessage(client, msg)
		}
	}
}
