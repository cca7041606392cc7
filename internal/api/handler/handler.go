package handler

import (
	"hushchat/backend/internal/chathub"
	"hushchat/backend/internal/storage"
)

// Handler serves the HTTP facade and the websocket upgrade endpoint.
type Handler struct {
	Hub    *chathub.Hub
	Router *chathub.Router
	Store  storage.Store
}

func NewHandler(hub *chathub.Hub, router *chathub.Router, store storage.Store) *Handler {
	return &Handler{Hub: hub, Router: router, Store: store}
}
