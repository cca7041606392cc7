package storage

import (
	"errors"

	"hushchat/backend/internal/models"
)

// Admission and lookup failures. The relay maps these onto protocol error
// envelopes; none of them are fatal.
var (
	ErrRoomNotFound    = errors.New("chat room not found")
	ErrRoomExpired     = errors.New("chat room has expired")
	ErrRoomFull        = errors.New("chat room is full")
	ErrNicknameTooLong = errors.New("nickname is too long")
	ErrMessageNotFound = errors.New("message not found")
)

// Store owns the room, participant, and message collections and every
// lifecycle transition on them. All operations are atomic with respect to
// concurrent callers acting on the same room; nothing outside the Store
// mutates an entity.
type Store interface {
	CreateRoom() (*models.Room, error)
	// GetRoom returns the room, ErrRoomNotFound, or ErrRoomExpired. Expiry
	// is judged against the store's own clock so every caller agrees.
	GetRoom(roomID string) (*models.Room, error)
	// DeleteRoom removes the room and cascades deletion of its messages
	// and participants. Idempotent.
	DeleteRoom(roomID string)

	// AdmitParticipant adds a participant to the room, failing closed with
	// ErrRoomNotFound, ErrRoomExpired, ErrRoomFull, or ErrNicknameTooLong.
	// It is the sole serialization point for admission control.
	AdmitParticipant(roomID, nickname, publicKey string) (*models.Participant, error)
	// RemoveParticipant drops the participant, deactivating the room at
	// one remaining participant and deleting it (with cascade) at zero.
	// Unknown ids are ignored.
	RemoveParticipant(participantID string)
	Participants(roomID string) []models.Participant
	SetParticipantOnline(participantID string, online bool)

	PostMessage(roomID, senderNickname, content, messageType, encryptedData string, isViewOnce bool) (*models.Message, error)
	// ListMessages returns the room's messages that are neither expired
	// nor already-viewed view-once, in creation order. Filtering happens
	// at read time; it never depends on sweep timing.
	ListMessages(roomID string) []models.Message
	// MarkViewed flags the message as viewed. A view-once message is
	// scheduled for hard deletion after a short grace period.
	MarkViewed(messageID string) error

	// SweepExpired deletes rooms and messages past their expiry. It is a
	// memory-reclamation backstop; reads stay correct without it.
	SweepExpired()
}
