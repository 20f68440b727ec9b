package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"trainingcrm/internal/utils"
)

const (
	EventOpportunitiesChanged = "opportunities_changed"
	EventStaleChanged         = "stale_changed"
	EventNotice               = "notice"
	EventHello                = "hello"
)

// Event tells open dashboards to re-render. It carries ids, never records.
type Event struct {
	Type    string    `json:"type"`
	ID      string    `json:"id,omitempty"`
	IDs     []string  `json:"ids,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

const (
	writeTimeout = 5 * time.Second
	queueSize    = 64
)

// Hub keeps the open dashboard sockets.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
	now   func() time.Time
	queue chan Event
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]struct{}),
		now:   time.Now,
		queue: make(chan Event, queueSize),
	}
}

// Enqueue hands e to the Run loop without waiting on any socket. When the
// queue is full the event is dropped; dashboards re-render on the next one.
func (h *Hub) Enqueue(e Event) {
	if e.At.IsZero() {
		e.At = h.now()
	}
	select {
	case h.queue <- e:
	default:
		utils.Log.WithField("type", e.Type).Debug("[ws] queue full, dropping event")
	}
}

// Run publishes queued events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-h.queue:
			h.Publish(e)
		}
	}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Count reports the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Publish sends e to every client. Clients that cannot take it are dropped.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = h.now()
	}
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := websocket.JSON.Send(c, e); err != nil {
			utils.Log.WithError(err).Debug("[ws] dropping client")
			h.Unregister(c)
		}
	}
}

// Handler upgrades the request and keeps the socket registered until the
// client goes away. Incoming frames are ignored.
func (h *Hub) Handler() http.Handler {
	return websocket.Server{
		// dashboards may be served from another origin
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   h.serve,
	}
}

func (h *Hub) serve(conn *websocket.Conn) {
	h.Register(conn)
	defer h.Unregister(conn)

	if err := websocket.JSON.Send(conn, Event{Type: EventHello, At: h.now()}); err != nil {
		return
	}
	var discard string
	for {
		if err := websocket.Message.Receive(conn, &discard); err != nil {
			return
		}
	}
}
