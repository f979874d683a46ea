// Package ws streams geofence events and incidents to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

const (
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is what clients receive.
type Message struct {
	Type      string `json:"type"`
	VehicleID string `json:"vehicle_id"`
	Data      any    `json:"data"`
}

// clientMessage is what clients may send: a vehicle filter or a ping.
type clientMessage struct {
	Type string `json:"type"`
	Data struct {
		VehicleID string `json:"vehicle_id"`
	} `json:"data"`
}

type outbound struct {
	vehicleID string
	payload   []byte
}

// Hub fans published events out to every connected client. It implements
// publisher.EventPublisher.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]struct{}
	broadcast chan outbound
	logger    *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan outbound, 256),
		logger:    logger,
	}
}

func (h *Hub) Register(r *gin.RouterGroup) {
	r.GET("/ws", h.ServeWS)
}

// Run delivers broadcasts until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case m := <-h.broadcast:
			h.fanout(m)
		}
	}
}

// fanout sends under the read lock so no channel is closed mid-send. Slow
// clients are dropped afterwards.
func (h *Hub) fanout(m outbound) {
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.wants(m.vehicleID) {
			continue
		}
		select {
		case c.send <- m.payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("websocket client too slow, disconnecting", slog.String("remote", c.remote))
		h.drop(c)
	}
}

func (h *Hub) reply(c *client, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) PublishGeofenceEvent(_ context.Context, e *domain.GeofenceEvent) error {
	return h.enqueue(Message{Type: "geofence_event", VehicleID: e.VehicleID, Data: e})
}

func (h *Hub) PublishIncident(_ context.Context, inc *domain.Incident) error {
	return h.enqueue(Message{Type: "incident", VehicleID: inc.VehicleID, Data: inc})
}

// enqueue never blocks the caller; a full broadcast queue drops the message.
func (h *Hub) enqueue(m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- outbound{vehicleID: m.VehicleID, payload: payload}:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message", slog.String("type", m.Type))
	}
	return nil
}

func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", slog.Any("error", err))
		return
	}

	cl := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: c.Request.RemoteAddr,
	}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("websocket client connected", slog.String("remote", cl.remote), slog.Int("clients", h.Clients()))

	go cl.writePump()
	cl.readPump()
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string

	mu        sync.Mutex
	vehicleID string
}

func (c *client) wants(vehicleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vehicleID == "" || c.vehicleID == vehicleID
}

func (c *client) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
		c.hub.logger.Info("websocket client disconnected", slog.String("remote", c.remote))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read", slog.String("remote", c.remote), slog.Any("error", err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.mu.Lock()
			c.vehicleID = msg.Data.VehicleID
			c.mu.Unlock()
		case "ping":
			c.hub.reply(c, []byte(`{"type":"pong"}`))
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
