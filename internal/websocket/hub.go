package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/service"
)

var _ service.SetNotifier = (*Hub)(nil)

// Hub fans set changes out to every connected client.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	logger     *slog.Logger
	mu         sync.RWMutex
}

// outbound is one encoded message. setID is empty for messages that are not
// about a single set and go to every client.
type outbound struct {
	setID string
	data  []byte
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *outbound, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	defer close(h.done) // Signal that Run() has exited

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", slog.String("client_id", client.id.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.Wants(msg.setID) {
			continue
		}
		if !client.trySend(msg.data) {
			// Slow consumer; drop it rather than stall everyone else.
			h.logger.Warn("dropping slow websocket client", slog.String("client_id", client.id.String()))
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Stop gracefully shuts down the hub and closes every client.
// It blocks until the hub has fully shut down.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done // Wait for Run() to finish
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister safely unregisters a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues msg for delivery. Messages published after Stop are
// dropped.
func (h *Hub) Publish(setID string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", slog.String("type", string(msg.Type)), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- &outbound{setID: setID, data: data}:
	case <-h.done:
	}
}

func (h *Hub) publish(setID string, msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		h.logger.Error("failed to build websocket message", slog.String("type", string(msgType)), slog.Any("error", err))
		return
	}
	h.Publish(setID, msg)
}

// service.SetNotifier

func (h *Hub) SetsLoaded(eventID string, sets []*domain.Set) {
	h.publish("", MessageTypeSetsLoaded, SetsLoadedPayload{EventID: eventID, Sets: sets})
}

func (h *Hub) SetUpdated(set *domain.Set) {
	h.publish(set.ID, MessageTypeSetUpdated, SetPayload{Set: set})
}

func (h *Hub) SetSaved(set *domain.Set) {
	h.publish(set.ID, MessageTypeSetSaved, SetPayload{Set: set})
}

func (h *Hub) SetSubmitted(set *domain.Set) {
	h.publish(set.ID, MessageTypeSetSubmitted, SetPayload{Set: set})
}

func (h *Hub) SetError(setID string, err error) {
	h.publish(setID, MessageTypeError, ErrorPayload{
		Code:    ErrorCode(err),
		Message: err.Error(),
		SetID:   setID,
	})
}
