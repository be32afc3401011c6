package domain

import (
	"sync"
	"time"
)

// Session tracks the connect-time state of one connection: the resolved
// participant and the room it currently occupies. A connection is in at
// most one room at a time.
type Session struct {
	ID             string
	Participant    Participant
	CurrentVideoID string
	CreatedAt      time.Time
	LastActiveAt   time.Time

	welcomed map[string]bool
	mu       sync.RWMutex
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
		welcomed:     make(map[string]bool),
	}
}

// Identify attaches the resolved participant to the session.
func (s *Session) Identify(p Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Participant = p
	s.LastActiveAt = time.Now()
}

func (s *Session) GetParticipant() Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Participant
}

func (s *Session) JoinRoom(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentVideoID = videoID
	s.LastActiveAt = time.Now()
}

func (s *Session) LeaveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentVideoID = ""
	s.LastActiveAt = time.Now()
}

func (s *Session) CurrentRoom() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentVideoID
}

// IsInRoom reports whether the connection currently occupies videoID.
func (s *Session) IsInRoom(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return videoID != "" && s.CurrentVideoID == videoID
}

// MarkWelcomed records that this connection received the welcome message
// for videoID and reports whether it had already been recorded. The
// welcome is emitted only on the first join of a room by a connection.
func (s *Session) MarkWelcomed(videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.welcomed[videoID] {
		return true
	}
	s.welcomed[videoID] = true
	return false
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
