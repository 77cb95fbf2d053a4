package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TopicAll receives every event regardless of day.
const TopicAll = "ALL"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Message is a payload destined for one topic plus the catch-all topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Hub fans timetable events out to websocket subscribers grouped by topic.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	mu         sync.RWMutex
	count      int

	onClients func(int)
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// NewHub builds a hub. onClients, when set, observes the connected client count.
func NewHub(logger *zap.Logger, onClients func(int)) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		done:       make(chan struct{}),
		onClients:  onClients,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.topic] == nil {
				h.clients[client.topic] = make(map[*Client]struct{})
			}
			h.clients[client.topic][client] = struct{}{}
			h.count++
			h.mu.Unlock()
			h.reportClients()
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Publish queues msg for delivery without blocking. It reports false when the hub is saturated.
func (h *Hub) Publish(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.logger.Warn("realtime broadcast dropped", zap.String("topic", msg.Topic))
		return false
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Serve upgrades the request and streams messages for topic until the peer disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), topic: topic}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	client.readPump()
	return nil
}

func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	var slow []*Client
	for _, topic := range deliveryTopics(msg.Topic) {
		for client := range h.clients[topic] {
			select {
			case client.send <- msg.Payload:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.Unlock()
	for _, client := range slow {
		h.logger.Debug("dropping slow realtime client", zap.String("topic", client.topic))
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	clients, ok := h.clients[client.topic]
	if ok {
		if _, ok = clients[client]; ok {
			delete(clients, client)
			close(client.send)
			h.count--
			if len(clients) == 0 {
				delete(h.clients, client.topic)
			}
		}
	}
	h.mu.Unlock()
	if ok {
		h.reportClients()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for topic, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, topic)
	}
	h.count = 0
	h.mu.Unlock()
	h.reportClients()
}

func (h *Hub) reportClients() {
	if h.onClients != nil {
		h.onClients(h.Clients())
	}
}

func deliveryTopics(topic string) []string {
	if topic == "" || topic == TopicAll {
		return []string{TopicAll}
	}
	return []string{topic, TopicAll}
}

// Client is a single websocket subscriber.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

// readPump discards inbound frames and tracks liveness via pongs.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
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

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
