package transport

import (
	"sync"

	"domino/internal/game"

	log "github.com/sirupsen/logrus"
)

// Hub tracks live connections by id and delivers room events to them. It is
// the game.Notifier for the server.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	log   *log.Entry
}

func NewHub(logger *log.Entry) *Hub {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Hub{conns: make(map[string]*Conn), log: logger}
}

// Notify encodes ev and queues it without blocking. A connection whose
// buffer is full is dropped rather than allowed to stall its room.
func (h *Hub) Notify(connID string, ev game.Event) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	b, err := encode(ev.Kind, "", ev.Payload)
	if err != nil {
		h.log.WithError(err).WithFields(log.Fields{"conn": connID, "kind": ev.Kind}).Error("encode event")
		return
	}
	c.enqueue(b)
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.conns[c.id]; ok && cur == c {
		delete(h.conns, c.id)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll ends every connection's write loop, which closes its socket.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		c.closeSend()
	}
}
