package config

import "time"

const (
	// Rooms
	RoomTTL           = 24 * time.Hour
	MaxParticipants   = 2
	MaxNicknameLength = 20

	// Messages
	RegularMessageTTL  = 10 * time.Minute
	ViewOnceMessageTTL = 60 * time.Second
	// ViewOnceDeleteGrace is how long a viewed view-once message survives
	// before its hard delete, so an in-flight read does not race the removal.
	ViewOnceDeleteGrace = 1 * time.Second

	// Cleanup
	SweepInterval = 30 * time.Second
)

const DefaultListenAddr = ":8080"
