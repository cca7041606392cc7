package models

import "time"

// Room represents an ephemeral two-party chat session addressed by an
// unguessable identifier. It lives only in process memory.
type Room struct {
	// ID is the unique identifier for the room (UUID).
	ID string `json:"id"`
	// CreatedAt is the timestamp when the room was created.
	CreatedAt time.Time `json:"createdAt"`
	// ExpiresAt is the hard deadline after which the room is unjoinable.
	ExpiresAt time.Time `json:"expiresAt"`
	// IsActive is true only while both participants are present.
	IsActive bool `json:"isActive"`
	// ParticipantCount is the number of live participants (0..2).
	ParticipantCount int `json:"participantCount"`
}

// Participant is one of up to two connected identities in a room. The
// nickname doubles as the addressing key for call signaling, so it must be
// unique within the room.
type Participant struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`
	// Nickname is the display name chosen at join time (max 20 characters).
	Nickname string `json:"nickname"`
	// PublicKey is an opaque client-supplied string used for key exchange
	// between the two peers. The relay never validates or interprets it.
	PublicKey string    `json:"publicKey,omitempty"`
	IsOnline  bool      `json:"isOnline"`
	JoinedAt  time.Time `json:"joinedAt"`
}
