package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"hushchat/backend/internal/api/handler"
	"hushchat/backend/internal/chathub"
	"hushchat/backend/internal/config"
	"hushchat/backend/internal/storage"
	"hushchat/backend/internal/sweeper"
)

func main() {
	log.Println("Starting HushChat relay...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	// 1. Session store (all state lives here, in memory only)
	store := storage.NewSessionStore()

	// 2. Connection registry and relay router
	hub := chathub.NewHub(store)
	router := chathub.NewRouter(hub, store)

	// 3. Background expiry sweeper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.New(store, config.SweepInterval).Run(ctx)

	// 4. Gin routing
	r := gin.Default()
	h := handler.NewHandler(hub, router, store)

	api := r.Group("/api")
	{
		api.POST("/chat/create", h.CreateRoom)
		api.GET("/chat/:roomId", h.GetRoom)
		api.GET("/chat/:roomId/messages", h.GetMessages)
		api.POST("/chat/message/:messageId/view", h.ViewMessage)
	}
	r.GET("/ws", h.ServeWebSocket)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = config.DefaultListenAddr
	}

	// No read/write timeouts: websocket connections are long-lived.
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Printf("Listening on %s", addr)
	log.Fatal(server.ListenAndServe())
}
