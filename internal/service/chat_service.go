package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/niranjanisuresh/YouConnect/internal/audit"
	"github.com/niranjanisuresh/YouConnect/internal/bot"
	"github.com/niranjanisuresh/YouConnect/internal/config"
	"github.com/niranjanisuresh/YouConnect/internal/domain"
	"github.com/niranjanisuresh/YouConnect/internal/hub"
	"github.com/niranjanisuresh/YouConnect/internal/identity"
	"github.com/niranjanisuresh/YouConnect/internal/store"
	"github.com/niranjanisuresh/YouConnect/pkg/log"
)

const welcomeText = "Welcome to the chat! Feel free to ask questions."

type chatService struct {
	hub       *hub.Hub
	store     *store.MessageStore
	resolver  *identity.Resolver
	responder *bot.Responder
	scheduler *bot.Scheduler
	botUser   domain.Participant
	chatCfg   config.ChatConfig

	mu     sync.RWMutex
	titles map[string]string // videoID -> title, fed by the video collaborator
}

func NewChatService(
	h *hub.Hub,
	st *store.MessageStore,
	resolver *identity.Resolver,
	responder *bot.Responder,
	scheduler *bot.Scheduler,
	botCfg config.BotConfig,
	chatCfg config.ChatConfig,
) ChatService {
	return &chatService{
		hub:       h,
		store:     st,
		resolver:  resolver,
		responder: responder,
		scheduler: scheduler,
		botUser: domain.Participant{
			ID:          "bot",
			DisplayName: botCfg.Name,
			Avatar:      botCfg.Avatar,
			IsBot:       true,
		},
		chatCfg: chatCfg,
		titles:  make(map[string]string),
	}
}

func (s *chatService) HandleConnect(ctx context.Context, c *hub.Client, credential string) error {
	p := s.resolver.Resolve(c.ID, credential)
	c.Session.Identify(p)

	log.Ctx(ctx).Debug().
		Str(log.FieldClientID, c.ID).
		Str(log.FieldUsername, p.DisplayName).
		Msg("participant identity resolved")
	audit.Log(ctx, audit.ActionConnect, p.ID, "participant connected")

	return c.SendEvent(&domain.UserConnectedEvent{
		Type: domain.EventUserConnected,
		User: p,
	})
}

func (s *chatService) HandleJoinVideo(ctx context.Context, c *hub.Client, videoID string) error {
	if videoID == "" {
		log.Ctx(ctx).Warn().Str(log.FieldClientID, c.ID).Msg("join with empty video id dropped")
		return nil
	}

	prior := c.Session.CurrentRoom()
	if prior != "" && prior != videoID {
		s.leaveRoom(ctx, c, prior)
	}

	s.hub.JoinRoom(c, videoID)
	c.Session.JoinRoom(videoID)
	p := c.Session.GetParticipant()

	audit.LogWithDetail(ctx, audit.ActionJoinRoom, p.ID, videoID, "participant joined room")

	// History replay goes to the joining connection only, in append
	// order, capped to the configured replay window.
	if err := c.SendEvent(&domain.ChatHistoryEvent{
		Type:     domain.EventChatHistory,
		VideoID:  videoID,
		Messages: s.store.History(videoID, s.chatCfg.HistoryLimit),
	}); err != nil {
		return err
	}

	if prior != videoID {
		s.hub.Broadcast(videoID, &domain.PresenceEvent{
			Type:      domain.EventUserJoined,
			Username:  p.DisplayName,
			Text:      p.DisplayName + " joined the chat",
			Timestamp: time.Now().UTC(),
		}, c.ID)
	}

	// The welcome is emitted once per room per connection; re-joins only
	// replay history.
	if !c.Session.MarkWelcomed(videoID) {
		welcome := s.newBotMessage(videoID, welcomeText, "")
		s.store.Append(videoID, welcome)
		s.hub.Broadcast(videoID, &domain.NewMessageEvent{
			Type:        domain.EventNewMessage,
			ChatMessage: welcome,
		}, "")
	}

	return nil
}

func (s *chatService) HandleSendMessage(ctx context.Context, c *hub.Client, videoID, text string) error {
	text = strings.TrimSpace(text)
	if videoID == "" || text == "" {
		log.Ctx(ctx).Warn().Str(log.FieldClientID, c.ID).Msg("malformed chat message dropped")
		return nil
	}
	if !c.Session.IsInRoom(videoID) {
		log.Ctx(ctx).Warn().
			Str(log.FieldClientID, c.ID).
			Str(log.FieldVideoID, videoID).
			Msg("message for room the sender has not joined rejected")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeNotInRoom, "join the video before sending messages"))
	}

	p := c.Session.GetParticipant()
	msg := domain.ChatMessage{
		ID:        ulid.Make().String(),
		VideoID:   videoID,
		Text:      text,
		UserID:    p.ID,
		Username:  p.DisplayName,
		Avatar:    p.Avatar,
		IsBot:     p.IsBot,
		CreatedAt: time.Now().UTC(),
	}

	s.store.Append(videoID, msg)
	audit.LogWithDetail(ctx, audit.ActionSendMessage, p.ID, msg.ID, "chat message sent")

	// Content messages echo back to the sender's own view.
	if err := s.hub.Broadcast(videoID, &domain.NewMessageEvent{
		Type:        domain.EventNewMessage,
		ChatMessage: msg,
	}, ""); err != nil {
		return err
	}

	s.scheduleBotReply(videoID, text, msg.ID)
	return nil
}

func (s *chatService) HandleLikeMessage(ctx context.Context, c *hub.Client, videoID, messageID string) error {
	if videoID == "" || messageID == "" {
		log.Ctx(ctx).Warn().Str(log.FieldClientID, c.ID).Msg("malformed like dropped")
		return nil
	}

	likes, ok := s.store.Like(videoID, messageID)
	if !ok {
		// Unknown room or message id: liveness over strictness.
		log.Ctx(ctx).Debug().
			Str(log.FieldVideoID, videoID).
			Str(log.FieldMessageID, messageID).
			Msg("like for unknown message ignored")
		return nil
	}

	audit.LogWithDetail(ctx, audit.ActionLike, c.Session.GetParticipant().ID, messageID, "message liked")

	return s.hub.Broadcast(videoID, &domain.MessageLikedEvent{
		Type:      domain.EventMessageLiked,
		MessageID: messageID,
		VideoID:   videoID,
		Likes:     likes,
	}, "")
}

func (s *chatService) HandleTyping(ctx context.Context, c *hub.Client, videoID string, started bool) error {
	if !c.Session.IsInRoom(videoID) {
		return nil
	}

	eventType := domain.EventUserTyping
	if !started {
		eventType = domain.EventUserStopTyping
	}

	// Typing notices are ephemeral: never logged, never echoed back.
	return s.hub.Broadcast(videoID, &domain.UserTypingEvent{
		Type:     eventType,
		Username: c.Session.GetParticipant().DisplayName,
		VideoID:  videoID,
	}, c.ID)
}

func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	if room := c.Session.CurrentRoom(); room != "" {
		s.leaveRoom(ctx, c, room)
	}
	audit.Log(ctx, audit.ActionDisconnect, c.Session.GetParticipant().ID, "participant disconnected")
	return nil
}

func (s *chatService) History(videoID string, limit, offset int) []domain.ChatMessage {
	msgs := s.store.History(videoID, 0)
	if offset >= len(msgs) {
		return []domain.ChatMessage{}
	}
	msgs = msgs[offset:]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs
}

func (s *chatService) Stats(videoID string) (store.RoomStats, bool) {
	return s.store.Stats(videoID)
}

func (s *chatService) TestBot(text, videoTitle string) (string, string) {
	reply, category := s.responder.Reply(text, videoTitle)
	return reply, string(category)
}

func (s *chatService) SetVideoTitle(videoID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[videoID] = title
}

func (s *chatService) videoTitle(videoID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titles[videoID]
}

// StartSweeper prunes idle, empty rooms on a ticker until ctx is done.
func (s *chatService) StartSweeper(ctx context.Context) {
	if s.chatCfg.SweepInterval <= 0 || s.chatCfg.RoomIdleTTL <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.chatCfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := s.store.Sweep(s.chatCfg.RoomIdleTTL, func(videoID string) bool {
					return s.hub.RoomClientCount(videoID) == 0
				})
				if removed > 0 {
					log.L().Info().Int("rooms_removed", removed).Msg("idle rooms swept")
				}
			}
		}
	}()
}

func (s *chatService) leaveRoom(ctx context.Context, c *hub.Client, videoID string) {
	s.hub.LeaveRoom(c, videoID)
	c.Session.LeaveRoom()

	p := c.Session.GetParticipant()
	audit.LogWithDetail(ctx, audit.ActionLeaveRoom, p.ID, videoID, "participant left room")

	// The leaver is already out of the member set; remaining members get
	// the notice.
	s.hub.Broadcast(videoID, &domain.PresenceEvent{
		Type:      domain.EventUserLeft,
		Username:  p.DisplayName,
		Text:      p.DisplayName + " left the chat",
		Timestamp: time.Now().UTC(),
	}, c.ID)
}

// scheduleBotReply asks the scheduler for a deferred reply to text. The
// reply is appended and fanned out exactly like a user message; a room
// everyone left in the meantime receives it to nobody.
func (s *chatService) scheduleBotReply(videoID, text, parentID string) {
	s.scheduler.Schedule(text, func() {
		reply, category := s.responder.Reply(text, s.videoTitle(videoID))

		msg := s.newBotMessage(videoID, reply, parentID)
		s.store.Append(videoID, msg)
		s.hub.Broadcast(videoID, &domain.NewMessageEvent{
			Type:        domain.EventNewMessage,
			ChatMessage: msg,
		}, "")

		audit.LogWithDetail(context.Background(), audit.ActionBotReply, s.botUser.ID, string(category), "bot reply published")
	})
}

func (s *chatService) newBotMessage(videoID, text, parentID string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        ulid.Make().String(),
		VideoID:   videoID,
		Text:      text,
		UserID:    s.botUser.ID,
		Username:  s.botUser.DisplayName,
		Avatar:    s.botUser.Avatar,
		IsBot:     true,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
}
