package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change notification. Household scopes delivery to clients
// watching that household code; an empty Household reaches everyone.
type Message struct {
	Type      string         `json:"type"`
	Household string         `json:"household,omitempty"`
	Entity    string         `json:"entity"`
	Action    string         `json:"action"`
	ID        int64          `json:"id,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(household, entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:      fmt.Sprintf("%s_%s", entity, action),
		Household: household,
		Entity:    entity,
		Action:    action,
		ID:        id,
		Extra:     extra,
	}
}

// Hub tracks connected clients grouped by household code.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.household]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.household] = room
	}
	room[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. Empty rooms are
// dropped. Calling it twice is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.household]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.household)
	}
}

// Broadcast queues msg for the clients of msg.Household, or for every client
// when Household is empty. Clients with a full buffer miss the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	deliver := func(room map[*Client]struct{}) {
		for c := range room {
			select {
			case c.send <- data:
			default:
				dropped++
			}
		}
	}

	if msg.Household != "" {
		deliver(h.rooms[msg.Household])
	} else {
		for _, room := range h.rooms {
			deliver(room)
		}
	}
	if dropped > 0 {
		h.logger.Debug("broadcast dropped for slow clients", "type", msg.Type, "household", msg.Household, "dropped", dropped)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// HouseholdCount returns how many clients are watching code.
func (h *Hub) HouseholdCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// announceWatchers sends a household_watchers message with the number of
// devices currently watching code. An empty room gets nothing.
func (h *Hub) announceWatchers(code string) {
	n := h.HouseholdCount(code)
	if n == 0 {
		return
	}
	h.Broadcast(NewMessage(code, "household", "watchers", 0, map[string]any{"count": n}))
}

// RoomCount returns how many households have at least one client.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
