package domain

import "time"

// ChatMessage is one chat line, human- or bot-authored. Immutable except
// for Likes, which only the message store mutates.
type ChatMessage struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	Text      string    `json:"text"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	IsBot     bool      `json:"is_bot"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
}
