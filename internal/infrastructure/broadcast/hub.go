package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub pushes relay status to connected observers: a full snapshot of all
// sources and relay jobs on a fixed interval, and discrete lifecycle events
// the moment they happen. Each observer has its own buffered send queue so a
// slow consumer never stalls delivery to the others.
type Hub struct {
	relayRepo  ports.RelayRepository
	sourceRepo ports.SourceRepository

	interval     time.Duration
	writeTimeout time.Duration
	sendBuffer   int

	mu        sync.RWMutex
	observers map[*observer]bool

	logger *zap.SugaredLogger
}

type observer struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (o *observer) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.send)
	}
}

// enqueue reports whether the message fit in the observer's buffer. A
// closed observer accepts nothing.
func (o *observer) enqueue(msg []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return true
	}
	select {
	case o.send <- msg:
		return true
	default:
		return false
	}
}

type snapshotMessage struct {
	Type      string         `json:"type"`
	Inputs    []inputStatus  `json:"inputs"`
	Outputs   []outputStatus `json:"outputs"`
	Timestamp time.Time      `json:"timestamp"`
}

type inputStatus struct {
	ID     domain.SourceID `json:"id"`
	Name   string          `json:"name"`
	URL    string          `json:"url"`
	Online bool            `json:"online"`
}

type outputStatus struct {
	ID        domain.RelayID    `json:"id"`
	Name      string            `json:"name"`
	State     domain.RelayState `json:"state"`
	Endpoint  *domain.Endpoint  `json:"endpoint,omitempty"`
	LastError string            `json:"lastError,omitempty"`
}

type eventMessage struct {
	Type string `json:"type"`
	domain.RelayEvent
}

func NewHub(
	relayRepo ports.RelayRepository,
	sourceRepo ports.SourceRepository,
	interval, writeTimeout time.Duration,
	sendBuffer int,
	logger *zap.SugaredLogger,
) *Hub {
	return &Hub{
		relayRepo:    relayRepo,
		sourceRepo:   sourceRepo,
		interval:     interval,
		writeTimeout: writeTimeout,
		sendBuffer:   sendBuffer,
		observers:    make(map[*observer]bool),
		logger:       logger,
	}
}

// HandleWebSocket registers an observer connection and serves it until it
// disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	obs := &observer{
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	h.observers[obs] = true
	h.mu.Unlock()
	h.logger.Infow("observer connected", "remote", conn.RemoteAddr().String())

	// Greet with an immediate snapshot so a new observer does not wait a
	// full interval for its first state.
	if msg, err := h.snapshot(r.Context()); err == nil {
		obs.enqueue(msg)
	}

	go h.writePump(obs)
	h.readPump(obs)
}

// readPump consumes (and discards) client frames so pings and close frames
// are processed; returning unregisters the observer.
func (h *Hub) readPump(obs *observer) {
	defer h.remove(obs)
	for {
		if _, _, err := obs.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Infow("observer read failed", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(obs *observer) {
	for msg := range obs.send {
		obs.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := obs.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(obs)
			return
		}
	}
	obs.conn.Close()
}

func (h *Hub) remove(obs *observer) {
	h.mu.Lock()
	registered := h.observers[obs]
	delete(h.observers, obs)
	h.mu.Unlock()

	if registered {
		obs.close()
		h.logger.Infow("observer disconnected", "remote", obs.conn.RemoteAddr().String())
	}
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	observers := make([]*observer, 0, len(h.observers))
	for obs := range h.observers {
		observers = append(observers, obs)
	}
	h.mu.RUnlock()

	for _, obs := range observers {
		if !obs.enqueue(msg) {
			// Buffer full: the observer is not keeping up. Drop it rather
			// than stall everyone else.
			h.logger.Warnw("dropping slow observer", "remote", obs.conn.RemoteAddr().String())
			h.remove(obs)
		}
	}
}

// PublishEvent pushes a discrete lifecycle event to every observer
// immediately, independent of the snapshot cycle. Never blocks the caller.
func (h *Hub) PublishEvent(event domain.RelayEvent) {
	msg, err := json.Marshal(eventMessage{Type: "event", RelayEvent: event})
	if err != nil {
		h.logger.Errorw("failed to marshal event", "error", err)
		return
	}
	h.broadcast(msg)
}

// Run emits a full status snapshot every interval until the context ends.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			msg, err := h.snapshot(ctx)
			if err != nil {
				h.logger.Errorw("failed to build status snapshot", "error", err)
				continue
			}
			h.broadcast(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) snapshot(ctx context.Context) ([]byte, error) {
	sources, err := h.sourceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := h.relayRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	msg := snapshotMessage{
		Type:      "snapshot",
		Inputs:    make([]inputStatus, 0, len(sources)),
		Outputs:   make([]outputStatus, 0, len(jobs)),
		Timestamp: time.Now(),
	}
	for _, s := range sources {
		msg.Inputs = append(msg.Inputs, inputStatus{
			ID:     s.ID,
			Name:   s.Name,
			URL:    s.URL,
			Online: s.Online,
		})
	}
	for _, j := range jobs {
		msg.Outputs = append(msg.Outputs, outputStatus{
			ID:        j.ID,
			Name:      j.Name,
			State:     j.State,
			Endpoint:  j.Endpoint,
			LastError: j.LastError,
		})
	}
	return json.Marshal(msg)
}

// ObserverCount reports connected observers, for health and metrics.
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
