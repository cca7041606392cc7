package chathub

// Client is the interface for one live transport connection. It abstracts
// the underlying communication mechanism so the hub and router can manage
// connections uniformly (and tests can substitute fakes).
//
// A connection starts unbound and carries no identity; only a successful
// join binds it to a (room, participant, nickname) triple.
type Client interface {
	// GetConnID returns the connection's own identifier, assigned at
	// upgrade time and unrelated to any participant.
	GetConnID() string
	// GetRoomID returns the bound room id, or "" while unbound.
	GetRoomID() string
	// GetParticipantID returns the bound participant id, or "" while unbound.
	GetParticipantID() string
	// GetNickname returns the bound nickname, or "" while unbound.
	GetNickname() string
	// IsBound reports whether the connection has joined a room.
	IsBound() bool
	// Bind associates the connection with an admitted participant. Called
	// by the router after the store accepts the join.
	Bind(roomID, participantID, nickname string)
	// Unbind atomically clears the identity and returns what it was, with
	// an empty participantID when the connection was already unbound. The
	// caller that gets a non-empty identity owns reporting the departure,
	// so a leave racing a disconnect produces exactly one user_left.
	Unbind() (roomID, participantID, nickname string)

	// TrySend queues an outbound frame without blocking. It returns false
	// when the connection is closed or its send buffer is full; the caller
	// decides what to do with the straggler.
	TrySend(payload []byte) bool

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's send channel and connection.
	Close()
}
