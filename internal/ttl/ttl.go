// Package ttl computes expiry timestamps for rooms and messages. The
// functions are pure so callers can evaluate policy against any clock.
package ttl

import (
	"time"

	"hushchat/backend/internal/config"
)

// RoomExpiry returns the moment a room created at the given time stops
// being joinable.
func RoomExpiry(createdAt time.Time) time.Time {
	return createdAt.Add(config.RoomTTL)
}

// MessageExpiry returns the hard upper bound on a message's lifetime.
// View-once messages live 60 seconds, regular messages 10 minutes.
func MessageExpiry(createdAt time.Time, isViewOnce bool) time.Time {
	if isViewOnce {
		return createdAt.Add(config.ViewOnceMessageTTL)
	}
	return createdAt.Add(config.RegularMessageTTL)
}

// Expired reports whether the deadline has passed as of now.
func Expired(now, expiresAt time.Time) bool {
	return expiresAt.Before(now)
}
