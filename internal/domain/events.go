package domain

import "time"

// WebSocket event types from client.
const (
	EventJoinVideo   = "join_video"
	EventSendMessage = "send_message"
	EventLikeMessage = "like_message"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
	EventPing        = "ping"
)

// WebSocket event types to client.
const (
	EventUserConnected  = "user_connected"
	EventChatHistory    = "chat_history"
	EventNewMessage     = "new_message"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventMessageLiked   = "message_liked"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventError          = "error"
	EventPong           = "pong"
)

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseEvent is the envelope all WebSocket events share.
type BaseEvent struct {
	Type string `json:"type"`
}

// Client -> Server events

type JoinVideoEvent struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id"`
}

type SendMessageEvent struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id"`
	Text    string `json:"text"`
}

type LikeMessageEvent struct {
	Type      string `json:"type"`
	VideoID   string `json:"video_id"`
	MessageID string `json:"message_id"`
}

type TypingEvent struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id"`
}

// Server -> Client events

type UserConnectedEvent struct {
	Type string      `json:"type"`
	User Participant `json:"user"`
}

type ChatHistoryEvent struct {
	Type     string        `json:"type"`
	VideoID  string        `json:"video_id"`
	Messages []ChatMessage `json:"messages"`
}

type NewMessageEvent struct {
	Type string `json:"type"`
	ChatMessage
}

// PresenceEvent announces a participant joining or leaving a room.
type PresenceEvent struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageLikedEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	VideoID   string `json:"video_id"`
	Likes     int    `json:"likes"`
}

type UserTypingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	VideoID  string `json:"video_id"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{
		Type:    EventError,
		Code:    code,
		Message: message,
	}
}
