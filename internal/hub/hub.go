package hub

import (
	"encoding/json"
	"sync"

	"github.com/niranjanisuresh/YouConnect/internal/config"
	"github.com/niranjanisuresh/YouConnect/pkg/log"
)

// Hub owns all live connections and the per-video room membership sets.
// Membership mutations and fan-out run through the Run loop; the maps are
// additionally guarded so handlers can read membership directly.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // videoID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// RoomMessage is one fan-out request. Recipients is the member set
// captured when the broadcast was issued, so clients joining afterwards
// never see it.
type RoomMessage struct {
	Message    []byte
	Recipients []*Client
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for videoID, members := range h.rooms {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.rooms, videoID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.L().Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range msg.Recipients {
				// A recipient can unregister between the snapshot and
				// this drain; its Send channel is closed then.
				if _, ok := h.clients[client.ID]; !ok {
					continue
				}
				select {
				case client.Send <- msg.Message:
				default:
					// Dead or saturated connection: drop it, never
					// fail the broadcast for the rest.
					go h.removeClient(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinRoom adds the client to videoID's member set, removing it from any
// other room first. A connection occupies at most one room.
func (h *Hub) JoinRoom(client *Client, videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, members := range h.rooms {
		if id == videoID {
			continue
		}
		if _, ok := members[client.ID]; ok {
			delete(members, client.ID)
			if len(members) == 0 {
				delete(h.rooms, id)
			}
		}
	}

	if _, ok := h.rooms[videoID]; !ok {
		h.rooms[videoID] = make(map[string]*Client)
	}
	h.rooms[videoID][client.ID] = client
	log.L().Info().Str(log.FieldClientID, client.ID).Str(log.FieldVideoID, videoID).Msg("client joined room")
}

func (h *Hub) LeaveRoom(client *Client, videoID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[videoID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, videoID)
		}
	}
	log.L().Info().Str(log.FieldClientID, client.ID).Str(log.FieldVideoID, videoID).Msg("client left room")
}

// Broadcast marshals the event and queues it for fan-out to videoID's
// members as of the call. Exclude names a client id that must not
// receive the payload; empty means deliver to every member, including
// the sender. Delivery is fire-and-forget.
func (h *Hub) Broadcast(videoID string, event interface{}, exclude string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	members := h.rooms[videoID]
	recipients := make([]*Client, 0, len(members))
	for clientID, client := range members {
		if clientID == exclude {
			continue
		}
		recipients = append(recipients, client)
	}
	h.mu.RUnlock()

	h.broadcast <- &RoomMessage{
		Message:    data,
		Recipients: recipients,
	}
	return nil
}

func (h *Hub) RoomClientCount(videoID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[videoID])
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
