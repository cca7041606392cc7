package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"hushchat/backend/internal/config"
	"hushchat/backend/internal/storage"
)

// CreateRoom creates a fresh room and returns the shareable join link.
func (h *Handler) CreateRoom(c *gin.Context) {
	room, err := h.Store.CreateRoom()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat room"})
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":    room.ID,
		"link":      fmt.Sprintf("%s://%s/chat/%s", scheme, c.Request.Host, room.ID),
		"expiresAt": room.ExpiresAt,
	})
}

// GetRoom returns room status and whether another participant may join.
// An expired room is deleted on sight and reported as 410. The store's
// clock decides expiry.
func (h *Handler) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")

	room, err := h.Store.GetRoom(roomID)
	if errors.Is(err, storage.ErrRoomExpired) {
		h.Store.DeleteRoom(roomID)
		c.JSON(http.StatusGone, gin.H{"error": "Chat room has expired"})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat room not found"})
		return
	}

	participants := h.Store.Participants(roomID)
	c.JSON(http.StatusOK, gin.H{
		"room":             room,
		"participantCount": len(participants),
		"canJoin":          len(participants) < config.MaxParticipants,
	})
}

// GetMessages returns the room's currently visible messages. Expired and
// viewed view-once messages are already filtered out by the store.
func (h *Handler) GetMessages(c *gin.Context) {
	messages := h.Store.ListMessages(c.Param("roomId"))
	c.JSON(http.StatusOK, messages)
}

// ViewMessage marks a message as viewed. For view-once messages this also
// schedules their deletion.
func (h *Handler) ViewMessage(c *gin.Context) {
	err := h.Store.MarkViewed(c.Param("messageId"))
	if errors.Is(err, storage.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark message as viewed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
