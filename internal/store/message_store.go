package store

import (
	"sync"
	"time"

	"github.com/niranjanisuresh/YouConnect/internal/domain"
)

// roomLog is one room's append-only message list.
type roomLog struct {
	messages     []domain.ChatMessage
	lastActivity time.Time
}

// MessageStore holds every room's chat log in memory. Ordering is append
// order; entries are immutable except for the like counter.
type MessageStore struct {
	mu      sync.Mutex
	rooms   map[string]*roomLog
	maxSize int // per-room cap, 0 = unbounded
}

// RoomStats summarises one room's log.
type RoomStats struct {
	TotalMessages int `json:"total_messages"`
	UserMessages  int `json:"user_messages"`
	BotMessages   int `json:"bot_messages"`
	UniqueUsers   int `json:"unique_users"`
}

func NewMessageStore(maxMessagesPerRoom int) *MessageStore {
	return &MessageStore{
		rooms:   make(map[string]*roomLog),
		maxSize: maxMessagesPerRoom,
	}
}

// Append adds msg to videoID's log, creating the room lazily. When the
// room exceeds the configured cap the oldest entries are dropped.
func (s *MessageStore) Append(videoID string, msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.room(videoID)
	room.messages = append(room.messages, msg)
	room.lastActivity = time.Now()

	if s.maxSize > 0 && len(room.messages) > s.maxSize {
		overflow := len(room.messages) - s.maxSize
		room.messages = append([]domain.ChatMessage(nil), room.messages[overflow:]...)
	}
}

// Like increments the like counter of the message with the given id and
// returns the new count. An unknown room or message id reports ok=false
// and changes nothing.
func (s *MessageStore) Like(videoID, messageID string) (likes int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[videoID]
	if !exists {
		return 0, false
	}

	for i := range room.messages {
		if room.messages[i].ID == messageID {
			room.messages[i].Likes++
			room.lastActivity = time.Now()
			return room.messages[i].Likes, true
		}
	}
	return 0, false
}

// History returns up to limit messages from videoID's log in append
// order; limit <= 0 returns the whole log. The caller owns the copy.
func (s *MessageStore) History(videoID string, limit int) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[videoID]
	if !exists {
		return []domain.ChatMessage{}
	}

	msgs := room.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ChatMessage{}, msgs...)
}

// Stats reports message counts for one room. The second return is
// false when no log exists for videoID.
func (s *MessageStore) Stats(videoID string) (RoomStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats RoomStats
	room, exists := s.rooms[videoID]
	if !exists {
		return stats, false
	}

	authors := make(map[string]struct{})
	for i := range room.messages {
		stats.TotalMessages++
		if room.messages[i].IsBot {
			stats.BotMessages++
		} else {
			stats.UserMessages++
			authors[room.messages[i].UserID] = struct{}{}
		}
	}
	stats.UniqueUsers = len(authors)
	return stats, true
}

// RoomCount returns the number of rooms currently holding a log.
func (s *MessageStore) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Sweep drops rooms idle for longer than idleTTL for which empty reports
// no connected members, and returns how many were removed. Retention is
// explicit policy here rather than unbounded growth.
func (s *MessageStore) Sweep(idleTTL time.Duration, empty func(videoID string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-idleTTL)
	removed := 0
	for videoID, room := range s.rooms {
		if room.lastActivity.Before(cutoff) && empty(videoID) {
			delete(s.rooms, videoID)
			removed++
		}
	}
	return removed
}

func (s *MessageStore) room(videoID string) *roomLog {
	room, exists := s.rooms[videoID]
	if !exists {
		room = &roomLog{}
		s.rooms[videoID] = room
	}
	return room
}
