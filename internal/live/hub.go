package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/trellislab/trellis/backend-go/internal/engine"
	"github.com/trellislab/trellis/backend-go/internal/session"
)

type Room struct {
	sketchID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
}

func NewRoom(sketchID string) *Room {
	return &Room{
		sketchID: sketchID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
	}
}

// Hub fans sketch updates out to every connection in a room. All model
// mutations go through the sketch engine, which serializes them; the
// hub only routes messages.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sketchID -> room
	register   chan *Client
	unregister chan *Client

	sketches *session.Service
}

func NewHub(sketches *session.Service) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sketches:   sketches,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SketchID]
	if !ok {
		room = NewRoom(client.SketchID)
		h.rooms[client.SketchID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// Welcome carries the full current scene so the client can render
	// before any operation happens.
	var scene *engine.Scene
	if sess, err := h.sketches.Get(client.SketchID); err == nil {
		scene = sess.Engine.Scene()
	}
	welcomePayload, _ := json.Marshal(WelcomePayload{
		ClientID: client.ClientID,
		CanEdit:  client.CanEdit,
		Scene:    scene,
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcomePayload})

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.SketchID, &Message{
		Type:     TypePresenceJoin,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "client", client.ClientID, "sketch", client.SketchID, "canEdit", client.CanEdit)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SketchID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.ClientID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.SketchID)
	}
	h.mu.Unlock()

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		ClientID: client.ClientID,
	})
	h.broadcastToRoom(client.SketchID, &Message{
		Type:     TypePresenceLeave,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}, "")

	slog.Info("client left", "client", client.ClientID, "sketch", client.SketchID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	if !sender.CanEdit {
		h.sendError(sender, msg.Seq, "editing requires an edit token")
		return
	}

	var payload OpSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(sender, msg.Seq, "invalid operation payload")
		return
	}

	sess, err := h.sketches.Get(sender.SketchID)
	if err != nil {
		h.sendError(sender, msg.Seq, "sketch is gone")
		return
	}

	res := sess.Engine.Apply(payload.Op)

	ackPayload, _ := json.Marshal(OpAckPayload{Result: res})
	sender.Send(&Message{Type: TypeOpAck, Seq: msg.Seq, Payload: ackPayload})

	// Every applied operation yields one scene broadcast, the sender
	// included, so all renderers converge on the same revision.
	if res.Applied {
		scenePayload, _ := json.Marshal(sess.Engine.Scene())
		h.broadcastToRoom(sender.SketchID, &Message{
			Type:    TypeSceneUpdate,
			Payload: scenePayload,
		}, "")
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.SketchID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.SketchID, &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}, sender.ClientID)
}

func (h *Hub) sendError(client *Client, seq int64, reason string) {
	payload, _ := json.Marshal(ErrorPayload{Reason: reason})
	client.Send(&Message{Type: TypeError, Seq: seq, Payload: payload})
}

func (h *Hub) broadcastToRoom(sketchID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sketchID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
