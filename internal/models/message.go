package models

import "time"

// Message kinds.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// Message is a chat message held in memory until it expires. Content is
// opaque to the relay: plaintext, ciphertext, or a data URL for images.
type Message struct {
	ID             string `json:"id"`
	RoomID         string `json:"roomId"`
	SenderNickname string `json:"senderNickname"`
	Content        string `json:"content"`
	// MessageType is "text" or "image".
	MessageType string `json:"messageType"`
	// EncryptedData carries an optional client-side encrypted payload. The
	// relay stores and forwards it untouched.
	EncryptedData string `json:"encryptedData,omitempty"`
	// IsViewOnce marks a message eligible for exactly one view before
	// scheduled deletion.
	IsViewOnce    bool      `json:"isViewOnce"`
	HasBeenViewed bool      `json:"hasBeenViewed"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
