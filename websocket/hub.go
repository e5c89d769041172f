// Package websocket streams registry changes to subscribers over
// gorilla/websocket connections.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/manhwa"
	"github.com/gorilla/websocket"
)

// DefaultBufferSize is the number of pending messages held per subscriber.
// A subscriber whose buffer is full is disconnected.
const DefaultBufferSize = 16

const writeWait = 5 * time.Second

var (
	_ manhwa.RegistryObserver = (*Hub)(nil)
	_ http.Handler            = (*Hub)(nil)
)

// Hub fans registry changes out to connected websocket subscribers.
type Hub struct {
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	bufferSize int

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger used for connection events.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithBufferSize sets the per-subscriber message buffer.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithOriginCheck replaces the default origin policy, which accepts every
// origin.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// NewHub creates a Hub with no subscribers.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:     slog.New(slog.DiscardHandler),
		bufferSize: DefaultBufferSize,
		clients:    make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Observe queues change for every subscriber without blocking.
func (h *Hub) Observe(change manhwa.RegistryChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("encode registry change", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("subscriber too slow, disconnecting", "remote_addr", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			c.stop()
		}
	}
}

// ServeHTTP upgrades the request and streams changes until the subscriber
// disconnects or the hub is closed. Incoming messages are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.bufferSize),
		done: make(chan struct{}),
	}
	if !h.add(c) {
		closeConn(conn)
		return
	}
	h.logger.Info("subscriber connected", "remote_addr", conn.RemoteAddr().String())

	go h.write(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	h.logger.Info("subscriber disconnected", "remote_addr", conn.RemoteAddr().String())
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.stop()
	}
	return nil
}

func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			closeConn(c.conn)
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.stop()
}

func closeConn(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}
