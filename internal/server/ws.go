package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 16
)

var errSlowClient = errors.New("websocket client send queue full")

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSClient owns one connection. Only its writer goroutine writes to conn;
// everyone else enqueues on send.
type WSClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *WSClient) Send(msg WSMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if !c.enqueue(b) {
		return errSlowClient
	}
	return nil
}

// enqueue never blocks; false means the client is gone or not keeping up.
func (c *WSClient) enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

type WSHub struct {
	mu        sync.RWMutex
	clients   map[*WSClient]struct{}
	writeWait time.Duration
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]struct{}), writeWait: wsWriteWait}
}

func (h *WSHub) Add(conn *websocket.Conn) *WSClient {
	c := &WSClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	wsClients.Inc()
	go h.writePump(c)
	return c
}

// Remove is safe to call more than once.
func (h *WSHub) Remove(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		wsClients.Dec()
	}
	c.once.Do(func() { close(c.done) })
	_ = c.conn.Close()
}

func (h *WSHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast marshals once and queues to every client without blocking.
// Clients whose queue is full are dropped.
func (h *WSHub) Broadcast(msg WSMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	var slow []*WSClient
	h.mu.RLock()
	for c := range h.clients {
		if !c.enqueue(b) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		klog.V(2).InfoS("Dropping slow websocket client", "remote", c.conn.RemoteAddr().String())
		h.Remove(c)
	}
}

func (h *WSHub) writePump(c *WSClient) {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.Remove(c)
				return
			}
		}
	}
}
