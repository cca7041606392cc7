package chathub

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"hushchat/backend/internal/models"
	"hushchat/backend/internal/storage"
)

// Protocol error strings. Clients key on these, so they are fixed.
const (
	errRoomNotFound    = "Room not found"
	errRoomExpired     = "Room has expired"
	errRoomFull        = "Room is full"
	errNicknameTooLong = "Nickname is too long"
	errNotInRoom       = "Not in a room"
	errAlreadyInRoom   = "Already in a room"
	errInvalidFormat   = "Invalid message format"
	errJoinFailed      = "Failed to join room"
	errSendFailed      = "Failed to send message"
)

// Router consumes inbound protocol messages from a connection, applies the
// matching store operation, and fans resulting events out through the hub.
// A connection moves Unbound -> Bound on a successful join; everything but
// join_room requires the Bound state.
type Router struct {
	Hub   *Hub
	Store storage.Store

	// postMu serializes post+broadcast so every connection in a room
	// observes messages in the order PostMessage calls completed.
	postMu sync.Mutex
}

// NewRouter creates a router over the given hub and store.
func NewRouter(hub *Hub, store storage.Store) *Router {
	return &Router{Hub: hub, Store: store}
}

// Dispatch handles one inbound frame. Malformed or unknown payloads are
// answered with an error envelope; the connection is never closed here.
func (r *Router) Dispatch(c Client, data []byte) {
	var envelope models.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		r.sendError(c, errInvalidFormat)
		return
	}

	switch envelope.Type {
	case models.TypeJoinRoom:
		r.handleJoinRoom(c, data)
	case models.TypeSendMessage:
		r.handleSendMessage(c, data)
	case models.TypeTyping:
		r.handleTyping(c, data)
	case models.TypeLeaveRoom:
		r.handleLeaveRoom(c)
	case models.TypeCallOffer, models.TypeCallAnswer, models.TypeCallICECandidate,
		models.TypeCallRejected, models.TypeCallEnded:
		r.handleCallSignal(c, data)
	default:
		r.sendError(c, errInvalidFormat)
	}
}

func (r *Router) handleJoinRoom(c Client, data []byte) {
	if c.IsBound() {
		r.sendError(c, errAlreadyInRoom)
		return
	}

	var req models.JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.sendError(c, errInvalidFormat)
		return
	}

	participant, err := r.Store.AdmitParticipant(req.RoomID, req.Nickname, req.PublicKey)
	if err != nil {
		r.sendError(c, admissionError(err))
		return
	}

	c.Bind(participant.RoomID, participant.ID, participant.Nickname)

	participants := r.Store.Participants(participant.RoomID)

	joined, err := json.Marshal(models.UserJoinedEvent{
		Type:             models.TypeUserJoined,
		Participant:      *participant,
		ParticipantCount: len(participants),
	})
	if err == nil {
		r.Hub.Broadcast(participant.RoomID, joined, participant.ID)
	}

	welcome, err := json.Marshal(models.RoomJoinedEvent{
		Type:         models.TypeRoomJoined,
		RoomID:       participant.RoomID,
		Participants: participants,
		Participant:  *participant,
	})
	if err != nil {
		log.Printf("ERROR: Failed to encode room_joined for room %s: %v", participant.RoomID, err)
		return
	}
	c.TrySend(welcome)
}

func admissionError(err error) string {
	switch {
	case errors.Is(err, storage.ErrRoomNotFound):
		return errRoomNotFound
	case errors.Is(err, storage.ErrRoomExpired):
		return errRoomExpired
	case errors.Is(err, storage.ErrRoomFull):
		return errRoomFull
	case errors.Is(err, storage.ErrNicknameTooLong):
		return errNicknameTooLong
	default:
		return errJoinFailed
	}
}

func (r *Router) handleSendMessage(c Client, data []byte) {
	if !c.IsBound() {
		r.sendError(c, errNotInRoom)
		return
	}

	var req models.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.sendError(c, errInvalidFormat)
		return
	}

	// Post and broadcast as one step so per-room delivery order matches
	// store insertion order.
	r.postMu.Lock()
	defer r.postMu.Unlock()

	message, err := r.Store.PostMessage(c.GetRoomID(), c.GetNickname(), req.Content, req.MessageType, req.EncryptedData, req.IsViewOnce)
	if err != nil {
		r.sendError(c, errSendFailed)
		return
	}

	payload, err := json.Marshal(models.NewMessageEvent{
		Type:    models.TypeNewMessage,
		Message: *message,
	})
	if err != nil {
		log.Printf("ERROR: Failed to encode new_message for room %s: %v", c.GetRoomID(), err)
		return
	}
	// The sender is included: clients render their own message from the
	// server echo rather than optimistically.
	r.Hub.Broadcast(c.GetRoomID(), payload, "")
}

func (r *Router) handleTyping(c Client, data []byte) {
	if !c.IsBound() {
		r.sendError(c, errNotInRoom)
		return
	}

	var req models.TypingRequest
	if err := json.Unmarshal(data, &req); err != nil {
		r.sendError(c, errInvalidFormat)
		return
	}

	payload, err := json.Marshal(models.TypingEvent{
		Type:          models.TypeTyping,
		ParticipantID: c.GetParticipantID(),
		Nickname:      c.GetNickname(),
		IsTyping:      req.IsTyping,
	})
	if err != nil {
		return
	}
	r.Hub.Broadcast(c.GetRoomID(), payload, c.GetParticipantID())
}

func (r *Router) handleLeaveRoom(c Client) {
	// Claim the identity first: whoever wins the Unbind reports the
	// departure, so a concurrent disconnect cannot report it again. The
	// connection stays open and returns to the unbound state.
	roomID, participantID, nickname := c.Unbind()
	if participantID == "" {
		r.sendError(c, errNotInRoom)
		return
	}

	r.Hub.RemoveAndNotify(roomID, participantID, nickname)
}

func (r *Router) sendError(c Client, message string) {
	payload, err := json.Marshal(models.ErrorEvent{
		Type:  models.TypeError,
		Error: message,
	})
	if err != nil {
		return
	}
	c.TrySend(payload)
}
