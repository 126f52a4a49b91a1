package alarm

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

const (
	// subscriberBuffer is how many undelivered events a subscriber may lag.
	subscriberBuffer = 8

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Event is a single message of the /events stream.
type Event struct {
	UpdatedAt time.Time `json:"updated_at"`
	Time      string    `json:"time"`
	Revision  int64     `json:"revision"`
	Enabled   bool      `json:"enabled"`
}

// NewEvent converts a domain.State into its stream representation.
func NewEvent(state *domain.State) Event {
	return Event{
		UpdatedAt: state.UpdatedAt.UTC(),
		Time:      domain.FormatWire(state.WakeupAt),
		Revision:  state.Revision,
		Enabled:   state.Enabled,
	}
}

// Hub fans state changes out to the connected subscribers.
type Hub struct {
	subscribers map[*subscriber]struct{}
	mu          sync.Mutex
	closed      bool
}

type subscriber struct {
	send chan *domain.State
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Publish queues state for every subscriber. A subscriber whose buffer is
// full is disconnected.
func (h *Hub) Publish(state *domain.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- state.Clone():
		default:
			h.removeLocked(sub)
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for sub := range h.subscribers {
		h.removeLocked(sub)
	}
}

func (h *Hub) subscribe() *subscriber {
	sub := &subscriber{
		send: make(chan *domain.State, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.send)
		return sub
	}

	h.subscribers[sub] = struct{}{}

	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}

	delete(h.subscribers, sub)
	close(sub.send)
}

var errBadSecretParam = errors.New("secret query parameter must be an integer")

// handleEvents streams the current state and then every change to a websocket.
// Events are delivered in revision order; older revisions are skipped.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	secret, err := strconv.ParseInt(r.URL.Query().Get("secret"), 10, 64)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, errBadSecretParam)
		return
	}

	if status, err := s.checkSecret(&secret); err != nil {
		writeError(ctx, w, status, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(ctx, "Failed to upgrade", "error", err)
		return
	}

	defer func() {
		_ = conn.Close()
	}()

	sub := s.hub.subscribe()
	defer s.hub.unsubscribe(sub)

	logger.Info(ctx, "Events subscriber connected")

	closed := make(chan struct{})

	go readPump(conn, closed)

	var lastRevision int64 = -1

	send := func(state *domain.State) error {
		if state.Revision <= lastRevision {
			return nil
		}

		lastRevision = state.Revision

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

		return conn.WriteJSON(NewEvent(state))
	}

	if err = send(s.service.Get(ctx)); err != nil {
		logger.WarnKV(ctx, "Failed to send event", "error", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			logger.Info(ctx, "Events subscriber disconnected")
			return
		case state, ok := <-sub.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))

				return
			}

			if err = send(state); err != nil {
				logger.WarnKV(ctx, "Failed to send event", "error", err)
				return
			}
		case <-ticker.C:
			if err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages, answers pongs and closes done when the
// connection goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
