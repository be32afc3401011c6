package service

import (
	"context"

	"github.com/niranjanisuresh/YouConnect/internal/domain"
	"github.com/niranjanisuresh/YouConnect/internal/hub"
	"github.com/niranjanisuresh/YouConnect/internal/store"
)

// ChatService handles every chat operation for one process. Malformed
// input degrades to a logged no-op or an error event back to the
// offending client; none of the methods returns a fatal error.
type ChatService interface {
	HandleConnect(ctx context.Context, client *hub.Client, credential string) error
	HandleJoinVideo(ctx context.Context, client *hub.Client, videoID string) error
	HandleSendMessage(ctx context.Context, client *hub.Client, videoID, text string) error
	HandleLikeMessage(ctx context.Context, client *hub.Client, videoID, messageID string) error
	HandleTyping(ctx context.Context, client *hub.Client, videoID string, started bool) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error

	History(videoID string, limit, offset int) []domain.ChatMessage
	Stats(videoID string) (store.RoomStats, bool)
	TestBot(text, videoTitle string) (reply, category string)

	// SetVideoTitle feeds the video-metadata collaborator's title into
	// the topic classifier's context.
	SetVideoTitle(videoID, title string)

	StartSweeper(ctx context.Context)
}
