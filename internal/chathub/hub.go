package chathub

import (
	"encoding/json"
	"log"
	"sync"

	"hushchat/backend/internal/models"
	"hushchat/backend/internal/storage"
)

// Hub is the connection registry: it maps live connections to their bound
// identity and fans events out to the right subset of a room.
type Hub struct {
	Store storage.Store

	mu      sync.RWMutex
	clients map[string]Client // keyed by connection id
}

// NewHub creates a registry backed by the given session store.
func NewHub(store storage.Store) *Hub {
	return &Hub{
		Store:   store,
		clients: make(map[string]Client),
	}
}

// Register adds a freshly upgraded connection. The connection is unbound
// until a join succeeds.
func (h *Hub) Register(c Client) {
	h.mu.Lock()
	h.clients[c.GetConnID()] = c
	h.mu.Unlock()
}

// Unregister removes the connection and, if it was still bound, removes
// its participant and notifies the rest of the room. Safe to call more
// than once for the same connection: only the first call observes it.
// Unbind hands out the identity exactly once, so a disconnect racing an
// explicit leave_room cannot report the same departure twice.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	_, present := h.clients[c.GetConnID()]
	delete(h.clients, c.GetConnID())
	h.mu.Unlock()

	if !present {
		return
	}
	if roomID, participantID, nickname := c.Unbind(); participantID != "" {
		h.RemoveAndNotify(roomID, participantID, nickname)
	}
	c.Close()
}

// RemoveAndNotify removes the participant from the store (cascading room
// deactivation or deletion) and broadcasts user_left to the remaining
// connection(s) of the room.
func (h *Hub) RemoveAndNotify(roomID, participantID, nickname string) {
	h.Store.RemoveParticipant(participantID)

	payload, err := json.Marshal(models.UserLeftEvent{
		Type:          models.TypeUserLeft,
		ParticipantID: participantID,
		Nickname:      nickname,
	})
	if err != nil {
		log.Printf("ERROR: Failed to encode user_left for room %s: %v", roomID, err)
		return
	}
	h.Broadcast(roomID, payload, participantID)
}

// Broadcast delivers the payload to every connection bound to the room,
// except the excluded participant. Delivery is per-connection best effort:
// a closed or saturated peer is skipped and unregistered without affecting
// the other recipients.
func (h *Hub) Broadcast(roomID string, payload []byte, excludeParticipantID string) {
	h.mu.RLock()
	recipients := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.GetRoomID() != roomID {
			continue
		}
		if excludeParticipantID != "" && c.GetParticipantID() == excludeParticipantID {
			continue
		}
		recipients = append(recipients, c)
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		if !c.TrySend(payload) {
			log.Printf("WARNING: Dropping unresponsive connection %s in room %s", c.GetConnID(), roomID)
			go h.Unregister(c)
		}
	}
}

// ClientCount reports the number of registered connections bound to the
// room. Used by tests to assert registry/store agreement.
func (h *Hub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, c := range h.clients {
		if c.GetRoomID() == roomID {
			n++
		}
	}
	return n
}
