package chathub_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hushchat/backend/internal/chathub"
	"hushchat/backend/internal/storage"
)

type testRig struct {
	store  *storage.SessionStore
	hub    *chathub.Hub
	router *chathub.Router
}

func newTestRig() *testRig {
	store := storage.NewSessionStore()
	hub := chathub.NewHub(store)
	return &testRig{
		store:  store,
		hub:    hub,
		router: chathub.NewRouter(hub, store),
	}
}

// joinAs registers a fresh connection and joins it to the room, failing
// the test if admission does not succeed.
func (rig *testRig) joinAs(t *testing.T, roomID, nickname string) *MockClient {
	t.Helper()
	c := newMockClient("conn-" + nickname)
	rig.hub.Register(c)
	rig.router.Dispatch(c, joinPayload(roomID, nickname, ""))

	event := c.LastEvent(t)
	require.Equal(t, "room_joined", event["type"], "join as %q failed: %v", nickname, event)
	c.Reset()
	return c
}

func joinPayload(roomID, nickname, publicKey string) []byte {
	return []byte(fmt.Sprintf(`{"type":"join_room","roomId":%q,"nickname":%q,"publicKey":%q}`, roomID, nickname, publicKey))
}

func TestRouterJoinRoom(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()

	alice := newMockClient("conn-a")
	rig.hub.Register(alice)

	// Act
	rig.router.Dispatch(alice, joinPayload(room.ID, "Alice", "pk-alice"))

	// Assert - joiner gets room_joined with itself in the roster
	event := alice.LastEvent(t)
	require.Equal(t, "room_joined", event["type"])
	assert.Equal(t, room.ID, event["roomId"])
	assert.Len(t, event["participants"], 1)
	assert.True(t, alice.IsBound())

	// Act - second join notifies the first participant
	alice.Reset()
	bob := newMockClient("conn-b")
	rig.hub.Register(bob)
	rig.router.Dispatch(bob, joinPayload(room.ID, "Bob", ""))

	// Assert
	joined := alice.EventsOfType(t, "user_joined")
	require.Len(t, joined, 1)
	assert.Equal(t, float64(2), joined[0]["participantCount"])

	bobWelcome := bob.LastEvent(t)
	require.Equal(t, "room_joined", bobWelcome["type"])
	assert.Len(t, bobWelcome["participants"], 2)
	assert.Empty(t, bob.EventsOfType(t, "user_joined"), "The joiner must not see its own user_joined")

	got, _ := rig.store.GetRoom(room.ID)
	assert.True(t, got.IsActive)
}

func TestRouterJoinRoom_FullThenNotInRoom(t *testing.T) {
	// Arrange - a room already holding two participants
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	rig.joinAs(t, room.ID, "Alice")
	rig.joinAs(t, room.ID, "Bob")

	mallory := newMockClient("conn-m")
	rig.hub.Register(mallory)

	// Act
	rig.router.Dispatch(mallory, joinPayload(room.ID, "Mallory", ""))

	// Assert - rejected, never bound
	event := mallory.LastEvent(t)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, "Room is full", event["error"])
	assert.False(t, mallory.IsBound())

	// Act - the same connection may not send messages
	mallory.Reset()
	rig.router.Dispatch(mallory, []byte(`{"type":"send_message","content":"hi"}`))

	event = mallory.LastEvent(t)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, "Not in a room", event["error"])
}

func TestRouterJoinRoom_Rejections(t *testing.T) {
	rig := newTestRig()

	c := newMockClient("conn-x")
	rig.hub.Register(c)
	rig.router.Dispatch(c, joinPayload("no-such-room", "Alice", ""))
	assert.Equal(t, "Room not found", c.LastEvent(t)["error"])

	// Expired room
	now := time.Now()
	rig.store.Now = func() time.Time { return now.Add(-25 * time.Hour) }
	room, _ := rig.store.CreateRoom()
	rig.store.Now = time.Now

	c.Reset()
	rig.router.Dispatch(c, joinPayload(room.ID, "Alice", ""))
	assert.Equal(t, "Room has expired", c.LastEvent(t)["error"])
	assert.False(t, c.IsBound())
}

func TestRouterSendMessageEchoesSender(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	alice := rig.joinAs(t, room.ID, "Alice")
	bob := rig.joinAs(t, room.ID, "Bob")
	alice.Reset()
	bob.Reset()

	// Act
	rig.router.Dispatch(alice, []byte(`{"type":"send_message","content":"hi","encryptedData":"enc-blob","isViewOnce":false}`))

	// Assert - both ends receive exactly one identical new_message
	for _, c := range []*MockClient{alice, bob} {
		events := c.EventsOfType(t, "new_message")
		require.Len(t, events, 1)
		message := events[0]["message"].(map[string]any)
		assert.Equal(t, "Alice", message["senderNickname"])
		assert.Equal(t, "hi", message["content"])
		assert.Equal(t, "enc-blob", message["encryptedData"], "The encrypted payload passes through untouched")
	}

	// And the store observed it
	messages := rig.store.ListMessages(room.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "enc-blob", messages[0].EncryptedData)
}

func TestRouterTypingExcludesSender(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	alice := rig.joinAs(t, room.ID, "Alice")
	bob := rig.joinAs(t, room.ID, "Bob")
	alice.Reset()
	bob.Reset()

	// Act
	rig.router.Dispatch(alice, []byte(`{"type":"typing","isTyping":true}`))

	// Assert
	assert.Empty(t, alice.EventsOfType(t, "typing"), "Typing must never echo back to its sender")
	events := bob.EventsOfType(t, "typing")
	require.Len(t, events, 1)
	assert.Equal(t, "Alice", events[0]["nickname"])
	assert.Equal(t, true, events[0]["isTyping"])
}

func TestRouterMalformedPayload(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	c := newMockClient("conn-x")
	rig.hub.Register(c)

	// Act - garbage, then an unknown tag
	rig.router.Dispatch(c, []byte(`{not json`))
	rig.router.Dispatch(c, []byte(`{"type":"self_destruct"}`))

	// Assert - two errors, connection still usable
	events := c.EventsOfType(t, "error")
	require.Len(t, events, 2)
	for _, event := range events {
		assert.Equal(t, "Invalid message format", event["error"])
	}
	assert.False(t, c.IsClosed())

	c.Reset()
	rig.router.Dispatch(c, joinPayload(room.ID, "Alice", ""))
	assert.Equal(t, "room_joined", c.LastEvent(t)["type"])
}

func TestRouterLeaveRoom(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	alice := rig.joinAs(t, room.ID, "Alice")
	bob := rig.joinAs(t, room.ID, "Bob")
	aliceParticipantID := alice.GetParticipantID()
	alice.Reset()
	bob.Reset()

	// Act
	rig.router.Dispatch(alice, []byte(`{"type":"leave_room"}`))

	// Assert - the peer is told, the room deactivates, the leaver unbinds
	events := bob.EventsOfType(t, "user_left")
	require.Len(t, events, 1)
	assert.Equal(t, aliceParticipantID, events[0]["participantId"])
	assert.Equal(t, "Alice", events[0]["nickname"])

	got, err := rig.store.GetRoom(room.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 1, got.ParticipantCount)
	assert.False(t, alice.IsBound())

	// Act - the leaver's later disconnect must not remove Bob's peer twice
	rig.hub.Unregister(alice)
	got, err = rig.store.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount)
}

func TestRouterCallOfferStampsCaller(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	alice := rig.joinAs(t, room.ID, "Alice")
	bob := rig.joinAs(t, room.ID, "Bob")
	alice.Reset()
	bob.Reset()

	// Act
	rig.router.Dispatch(alice, []byte(`{"type":"call_offer","callId":"call-1","offer":{"type":"offer","sdp":"v=0"},"targetNickname":"Bob"}`))

	// Assert - the callee learns who is ringing; the caller hears nothing
	assert.Empty(t, alice.EventsOfType(t, "call_offer"), "Signaling must never echo back to its sender")
	events := bob.EventsOfType(t, "call_offer")
	require.Len(t, events, 1)
	assert.Equal(t, "Alice", events[0]["fromNickname"])
	assert.Equal(t, "call-1", events[0]["callId"])
	assert.Equal(t, "Bob", events[0]["targetNickname"])

	// The SDP blob is forwarded untouched.
	offer := events[0]["offer"].(map[string]any)
	assert.Equal(t, "v=0", offer["sdp"])
}

func TestRouterCallSignalsForwardUnchanged(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	alice := rig.joinAs(t, room.ID, "Alice")
	bob := rig.joinAs(t, room.ID, "Bob")
	alice.Reset()
	bob.Reset()

	// Act - the callee answers, then ends the call
	rig.router.Dispatch(bob, []byte(`{"type":"call_answer","callId":"call-1","answer":{"type":"answer","sdp":"v=1"}}`))
	rig.router.Dispatch(bob, []byte(`{"type":"call_ended","callId":"call-1"}`))

	// Assert - only offers are stamped with the sender
	answers := alice.EventsOfType(t, "call_answer")
	require.Len(t, answers, 1)
	assert.NotContains(t, answers[0], "fromNickname")
	answer := answers[0]["answer"].(map[string]any)
	assert.Equal(t, "v=1", answer["sdp"])

	ended := alice.EventsOfType(t, "call_ended")
	require.Len(t, ended, 1)
	assert.Equal(t, "call-1", ended[0]["callId"])

	assert.Empty(t, bob.Events(t), "The signaling sender receives nothing back")
}

func TestRouterCallSignalRequiresRoom(t *testing.T) {
	rig := newTestRig()
	c := newMockClient("conn-x")
	rig.hub.Register(c)

	rig.router.Dispatch(c, []byte(`{"type":"call_ice_candidate","callId":"call-1","candidate":{"candidate":"cand"}}`))

	event := c.LastEvent(t)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, "Not in a room", event["error"])
}

func TestHubUnregisterAbruptClose(t *testing.T) {
	// Arrange
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	alice := rig.joinAs(t, room.ID, "Alice")
	bob := rig.joinAs(t, room.ID, "Bob")
	bob.Reset()

	// Act - network failure: no leave_room, just the close path
	rig.hub.Unregister(alice)
	rig.hub.Unregister(alice) // error handler and close handler both fire

	// Assert
	require.Len(t, bob.EventsOfType(t, "user_left"), 1, "Exactly one user_left per departure")
	got, err := rig.store.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount)
	assert.True(t, alice.IsClosed())

	// Registry and store agree on occupancy.
	assert.Equal(t, rig.hub.ClientCount(room.ID), got.ParticipantCount)

	// Act - last participant leaves, room is deleted with cascade
	rig.hub.Unregister(bob)
	_, err = rig.store.GetRoom(room.ID)
	assert.ErrorIs(t, err, storage.ErrRoomNotFound)
}

func TestHubBroadcastSkipsUnresponsivePeer(t *testing.T) {
	// Arrange - Bob refuses delivery (saturated send buffer)
	rig := newTestRig()
	room, _ := rig.store.CreateRoom()
	alice := rig.joinAs(t, room.ID, "Alice")
	bob := rig.joinAs(t, room.ID, "Bob")
	bob.mu.Lock()
	bob.refuse = true
	bob.mu.Unlock()
	alice.Reset()

	// Act
	rig.router.Dispatch(alice, []byte(`{"type":"send_message","content":"hi"}`))

	// Assert - Alice still got her echo; Bob is dropped, not the broadcast
	require.Len(t, alice.EventsOfType(t, "new_message"), 1)

	// The unresponsive peer is unregistered asynchronously.
	require.Eventually(t, func() bool {
		got, err := rig.store.GetRoom(room.ID)
		return err == nil && got.ParticipantCount == 1
	}, time.Second, 10*time.Millisecond)
}

// TestLeaveRoomRacingDisconnect fires an explicit leave_room and the close
// path for the same connection concurrently. Whichever side wins the
// identity must be the only one to report the departure.
func TestLeaveRoomRacingDisconnect(t *testing.T) {
	for i := 0; i < 50; i++ {
		rig := newTestRig()
		room, _ := rig.store.CreateRoom()
		alice := rig.joinAs(t, room.ID, "Alice")
		bob := rig.joinAs(t, room.ID, "Bob")
		bob.Reset()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			rig.router.Dispatch(alice, []byte(`{"type":"leave_room"}`))
		}()
		go func() {
			defer wg.Done()
			rig.hub.Unregister(alice)
		}()
		wg.Wait()

		require.Len(t, bob.EventsOfType(t, "user_left"), 1, "Exactly one user_left per departure")
		got, err := rig.store.GetRoom(room.ID)
		require.NoError(t, err)
		require.Equal(t, 1, got.ParticipantCount)
	}
}
