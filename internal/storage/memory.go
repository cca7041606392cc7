package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hushchat/backend/internal/config"
	"hushchat/backend/internal/models"
	"hushchat/backend/internal/ttl"
)

type storedMessage struct {
	models.Message
	seq uint64
}

type storedParticipant struct {
	models.Participant
	seq uint64
}

// SessionStore is the in-memory implementation of Store. A single mutex
// guards all three collections so admit/remove/post/mark-viewed/sweep can
// never interleave on the same room.
type SessionStore struct {
	mu           sync.Mutex
	rooms        map[string]*models.Room
	participants map[string]*storedParticipant
	messages     map[string]*storedMessage
	seq          uint64

	// Now supplies the current time. Tests replace it with a fake clock.
	Now func() time.Time
	// AfterFunc schedules the deferred hard delete of viewed view-once
	// messages. Tests replace it to capture and fire the timer directly.
	AfterFunc func(d time.Duration, f func())
}

// NewSessionStore creates an empty store backed by the real clock.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		rooms:        make(map[string]*models.Room),
		participants: make(map[string]*storedParticipant),
		messages:     make(map[string]*storedMessage),
		Now:          time.Now,
		AfterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

func (s *SessionStore) CreateRoom() (*models.Room, error) {
	now := s.Now()
	room := &models.Room{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: ttl.RoomExpiry(now),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room

	snapshot := *room
	return &snapshot, nil
}

func (s *SessionStore) GetRoom(roomID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if ttl.Expired(s.Now(), room.ExpiresAt) {
		return nil, ErrRoomExpired
	}
	snapshot := *room
	return &snapshot, nil
}

func (s *SessionStore) DeleteRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteRoomLocked(roomID)
}

func (s *SessionStore) deleteRoomLocked(roomID string) {
	delete(s.rooms, roomID)
	for id, p := range s.participants {
		if p.RoomID == roomID {
			delete(s.participants, id)
		}
	}
	for id, m := range s.messages {
		if m.RoomID == roomID {
			delete(s.messages, id)
		}
	}
}

func (s *SessionStore) AdmitParticipant(roomID, nickname, publicKey string) (*models.Participant, error) {
	if len(nickname) > config.MaxNicknameLength {
		return nil, ErrNicknameTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	now := s.Now()
	if ttl.Expired(now, room.ExpiresAt) {
		return nil, ErrRoomExpired
	}
	if room.ParticipantCount >= config.MaxParticipants {
		return nil, ErrRoomFull
	}

	s.seq++
	participant := &storedParticipant{
		Participant: models.Participant{
			ID:        uuid.New().String(),
			RoomID:    roomID,
			Nickname:  nickname,
			PublicKey: publicKey,
			IsOnline:  true,
			JoinedAt:  now,
		},
		seq: s.seq,
	}
	s.participants[participant.ID] = participant

	room.ParticipantCount++
	if room.ParticipantCount == config.MaxParticipants {
		room.IsActive = true
	}

	snapshot := participant.Participant
	return &snapshot, nil
}

func (s *SessionStore) RemoveParticipant(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[participantID]
	if !ok {
		return
	}
	delete(s.participants, participantID)

	room, ok := s.rooms[participant.RoomID]
	if !ok {
		return
	}
	if room.ParticipantCount > 0 {
		room.ParticipantCount--
	}
	switch room.ParticipantCount {
	case 0:
		s.deleteRoomLocked(room.ID)
	case 1:
		room.IsActive = false
	}
}

func (s *SessionStore) Participants(roomID string) []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*storedParticipant
	for _, p := range s.participants {
		if p.RoomID == roomID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })

	result := make([]models.Participant, 0, len(list))
	for _, p := range list {
		result = append(result, p.Participant)
	}
	return result
}

func (s *SessionStore) SetParticipantOnline(participantID string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if participant, ok := s.participants[participantID]; ok {
		participant.IsOnline = online
	}
}

func (s *SessionStore) PostMessage(roomID, senderNickname, content, messageType, encryptedData string, isViewOnce bool) (*models.Message, error) {
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, ErrRoomNotFound
	}

	now := s.Now()
	s.seq++
	message := &storedMessage{
		Message: models.Message{
			ID:             uuid.New().String(),
			RoomID:         roomID,
			SenderNickname: senderNickname,
			Content:        content,
			MessageType:    messageType,
			EncryptedData:  encryptedData,
			IsViewOnce:     isViewOnce,
			CreatedAt:      now,
			ExpiresAt:      ttl.MessageExpiry(now, isViewOnce),
		},
		seq: s.seq,
	}
	s.messages[message.ID] = message

	snapshot := message.Message
	return &snapshot, nil
}

func (s *SessionStore) ListMessages(roomID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	var list []*storedMessage
	for _, m := range s.messages {
		if m.RoomID != roomID {
			continue
		}
		if ttl.Expired(now, m.ExpiresAt) {
			continue
		}
		if m.IsViewOnce && m.HasBeenViewed {
			continue
		}
		list = append(list, m)
	}
	// Creation order; the insertion sequence breaks timestamp ties.
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].seq < list[j].seq
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	result := make([]models.Message, 0, len(list))
	for _, m := range list {
		result = append(result, m.Message)
	}
	return result
}

func (s *SessionStore) MarkViewed(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	message.HasBeenViewed = true

	if message.IsViewOnce {
		s.AfterFunc(config.ViewOnceDeleteGrace, func() {
			s.mu.Lock()
			delete(s.messages, messageID)
			s.mu.Unlock()
		})
	}
	return nil
}

func (s *SessionStore) SweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	for id, room := range s.rooms {
		if ttl.Expired(now, room.ExpiresAt) {
			s.deleteRoomLocked(id)
		}
	}
	for id, message := range s.messages {
		if ttl.Expired(now, message.ExpiresAt) {
			delete(s.messages, id)
		}
	}
}
