package models

import "encoding/json"

// Inbound websocket message types.
const (
	TypeJoinRoom    = "join_room"
	TypeSendMessage = "send_message"
	TypeTyping      = "typing"
	TypeLeaveRoom   = "leave_room"
)

// Call signaling message types, forwarded opaquely between the two
// participants of a room.
const (
	TypeCallOffer        = "call_offer"
	TypeCallAnswer       = "call_answer"
	TypeCallICECandidate = "call_ice_candidate"
	TypeCallRejected     = "call_rejected"
	TypeCallEnded        = "call_ended"
)

// Outbound websocket message types.
const (
	TypeRoomJoined = "room_joined"
	TypeUserJoined = "user_joined"
	TypeUserLeft   = "user_left"
	TypeNewMessage = "new_message"
	TypeError      = "error"
)

// Envelope carries only the type discriminator of an inbound frame. The
// full payload is decoded per type by the router.
type Envelope struct {
	Type string `json:"type"`
}

// JoinRoomRequest asks to be admitted to a room.
type JoinRoomRequest struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	Nickname  string `json:"nickname"`
	PublicKey string `json:"publicKey,omitempty"`
}

// SendMessageRequest posts a chat message to the sender's room.
type SendMessageRequest struct {
	Type          string `json:"type"`
	Content       string `json:"content"`
	MessageType   string `json:"messageType,omitempty"`
	EncryptedData string `json:"encryptedData,omitempty"`
	IsViewOnce    bool   `json:"isViewOnce,omitempty"`
}

// TypingRequest signals the sender's typing state to the other participant.
type TypingRequest struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"isTyping"`
}

// CallSignal is the shared envelope for the five call_* message kinds. The
// SDP and ICE blobs stay raw JSON: the relay forwards them without looking
// inside.
type CallSignal struct {
	Type      string          `json:"type"`
	CallID    string          `json:"callId"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	// TargetNickname addresses the callee on offers. With two-party rooms
	// the recipient is unambiguous, so it is informational.
	TargetNickname string `json:"targetNickname,omitempty"`
	// FromNickname is stamped by the relay on forwarded offers so the
	// callee knows who is ringing.
	FromNickname string `json:"fromNickname,omitempty"`
}

// RoomJoinedEvent is sent to the joiner after a successful admission.
type RoomJoinedEvent struct {
	Type         string        `json:"type"`
	RoomID       string        `json:"roomId"`
	Participants []Participant `json:"participants"`
	Participant  Participant   `json:"participant"`
}

// UserJoinedEvent tells the existing participant that a peer arrived.
type UserJoinedEvent struct {
	Type             string      `json:"type"`
	Participant      Participant `json:"participant"`
	ParticipantCount int         `json:"participantCount"`
}

// UserLeftEvent tells the remaining participant that the peer is gone.
type UserLeftEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	Nickname      string `json:"nickname"`
}

// NewMessageEvent delivers a stored message to every connection in the
// room, including the sender, so all clients render the same record.
type NewMessageEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// TypingEvent relays a typing indicator to the other participant.
type TypingEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	Nickname      string `json:"nickname"`
	IsTyping      bool   `json:"isTyping"`
}

// ErrorEvent reports a recoverable protocol error to the offending
// connection only. It never closes the connection.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
