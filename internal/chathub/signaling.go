package chathub

import (
	"encoding/json"

	"hushchat/backend/internal/models"
)

// handleCallSignal forwards call_offer/call_answer/call_ice_candidate/
// call_rejected/call_ended to the other participant of the room. The relay
// keeps no call state: the SDP and ICE payloads pass through as raw JSON,
// and with occupancy capped at two, "everyone but the sender" is exactly
// the callee.
func (r *Router) handleCallSignal(c Client, data []byte) {
	if !c.IsBound() {
		r.sendError(c, errNotInRoom)
		return
	}

	var signal models.CallSignal
	if err := json.Unmarshal(data, &signal); err != nil {
		r.sendError(c, errInvalidFormat)
		return
	}

	// Stamp offers with the caller's nickname so the callee knows who is
	// ringing. The other signal kinds answer an established call id.
	if signal.Type == models.TypeCallOffer {
		signal.FromNickname = c.GetNickname()
	}

	payload, err := json.Marshal(signal)
	if err != nil {
		r.sendError(c, errInvalidFormat)
		return
	}
	r.Hub.Broadcast(c.GetRoomID(), payload, c.GetParticipantID())
}
