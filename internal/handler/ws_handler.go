package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/niranjanisuresh/YouConnect/internal/config"
	"github.com/niranjanisuresh/YouConnect/internal/domain"
	"github.com/niranjanisuresh/YouConnect/internal/hub"
	"github.com/niranjanisuresh/YouConnect/internal/service"
	"github.com/niranjanisuresh/YouConnect/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	// Identity resolution is total: a missing or bad credential yields an
	// ephemeral participant, never a rejected connection.
	if err := h.service.HandleConnect(r.Context(), client, credentialFrom(r)); err != nil {
		log.L().Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("connect handling failed")
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleMessage)
		h.service.HandleDisconnect(context.Background(), client)
	}()
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.EventJoinVideo:
		var msg domain.JoinVideoEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid join_video message"))
			return
		}
		if err := h.service.HandleJoinVideo(ctx, client, msg.VideoID); err != nil {
			log.L().Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("join video failed")
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to join video"))
		}

	case domain.EventSendMessage:
		var msg domain.SendMessageEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid send_message message"))
			return
		}
		if err := h.service.HandleSendMessage(ctx, client, msg.VideoID, msg.Text); err != nil {
			log.L().Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("send message failed")
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to send message"))
		}

	case domain.EventLikeMessage:
		var msg domain.LikeMessageEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid like_message message"))
			return
		}
		if err := h.service.HandleLikeMessage(ctx, client, msg.VideoID, msg.MessageID); err != nil {
			log.L().Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("like message failed")
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to like message"))
		}

	case domain.EventTypingStart, domain.EventTypingStop:
		var msg domain.TypingEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid typing message"))
			return
		}
		if err := h.service.HandleTyping(ctx, client, msg.VideoID, base.Type == domain.EventTypingStart); err != nil {
			log.L().Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("typing notice failed")
		}

	case domain.EventPing:
		client.SendEvent(map[string]string{"type": domain.EventPong})

	default:
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/chat/ws", h.HandleWebSocket)
}

// credentialFrom extracts the presented credential: a token query
// parameter or a bearer Authorization header. Absence is fine.
func credentialFrom(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
