package chathub_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// MockClient is a test double for the chathub.Client interface. It records
// every payload delivered to it so tests can assert on the event stream.
type MockClient struct {
	connID string

	mu            sync.Mutex
	roomID        string
	participantID string
	nickname      string
	sent          [][]byte
	closed        bool
	// refuse makes TrySend fail, simulating a saturated or closed peer.
	refuse bool
}

func newMockClient(connID string) *MockClient {
	return &MockClient{connID: connID}
}

func (c *MockClient) GetConnID() string { return c.connID }

func (c *MockClient) GetRoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *MockClient) GetParticipantID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participantID
}

func (c *MockClient) GetNickname() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nickname
}

func (c *MockClient) IsBound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participantID != ""
}

func (c *MockClient) Bind(roomID, participantID, nickname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.participantID = participantID
	c.nickname = nickname
}

func (c *MockClient) Unbind() (string, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	roomID, participantID, nickname := c.roomID, c.participantID, c.nickname
	c.roomID = ""
	c.participantID = ""
	c.nickname = ""
	return roomID, participantID, nickname
}

func (c *MockClient) TrySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refuse || c.closed {
		return false
	}
	c.sent = append(c.sent, payload)
	return true
}

func (c *MockClient) Run() {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events decodes everything sent to the client into loose JSON objects.
func (c *MockClient) Events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make([]map[string]any, 0, len(c.sent))
	for _, payload := range c.sent {
		var event map[string]any
		require.NoError(t, json.Unmarshal(payload, &event))
		events = append(events, event)
	}
	return events
}

// EventsOfType filters the recorded events by their type tag.
func (c *MockClient) EventsOfType(t *testing.T, eventType string) []map[string]any {
	t.Helper()
	var matched []map[string]any
	for _, event := range c.Events(t) {
		if event["type"] == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// LastEvent returns the most recent event, failing the test when none was
// delivered.
func (c *MockClient) LastEvent(t *testing.T) map[string]any {
	t.Helper()
	events := c.Events(t)
	require.NotEmpty(t, events, "expected client %s to have received an event", c.connID)
	return events[len(events)-1]
}

// Reset clears the recorded events between test phases.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}
