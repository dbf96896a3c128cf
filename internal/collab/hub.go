package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/schema"
)

// WellLoader fetches the current schema and version of a well.
type WellLoader func(ctx context.Context, wellID string) (*schema.WellSchema, int, error)

const loadTimeout = 10 * time.Second

type Room struct {
	wellID   string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	well     *schema.WellSchema
	version  int
}

func NewRoom(wellID string, w *schema.WellSchema, version int) *Room {
	return &Room{
		wellID:   wellID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		well:     w,
		version:  version,
	}
}

// Hub fans well changes out to every client watching that well. Each
// client gets the schematic rendered with its own view options.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // wellID -> room
	load       WellLoader
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub(load WellLoader) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		load:       load,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every client's write pump.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.WellID]
	h.mu.RUnlock()

	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		w, version, err := h.load(ctx, client.WellID)
		cancel()
		if err != nil {
			slog.Warn("load well for client", "well", client.WellID, "error", err)
			client.Send(newMessage(TypeError, ErrorPayload{Message: err.Error()}))
			client.closeSend()
			return
		}

		h.mu.Lock()
		if room, ok = h.rooms[client.WellID]; !ok {
			room = NewRoom(client.WellID, w, version)
			h.rooms[client.WellID] = room
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	room.clients[client.ClientID] = client
	w, version := room.well, room.version
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		WellID:   client.WellID,
		Version:  version,
	}))
	h.sendSchematic(client, w, version)

	// Send current presence state to new client
	client.Send(room.presence.StateMessage())

	// Broadcast join to other clients
	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{UserID: client.UserID})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.WellID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "well", client.WellID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.WellID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.UserID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.WellID)
	}
	h.mu.Unlock()

	// Broadcast leave to remaining clients
	leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcastToRoom(client.WellID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "well", client.WellID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			c.closeSend()
		}
		delete(h.rooms, id)
	}
}

// Publish replaces the well watched by a room and pushes a fresh schematic
// to each of its clients. Wells nobody watches are ignored.
func (h *Hub) Publish(wellID string, w *schema.WellSchema, version int) {
	h.mu.Lock()
	room, ok := h.rooms[wellID]
	if !ok || version < room.version {
		h.mu.Unlock()
		return
	}
	room.well, room.version = w, version
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.sendSchematic(c, w, version)
	}
}

// Remove tells a room its well was deleted.
func (h *Hub) Remove(wellID string) {
	msg := newMessage(TypeWellRemoved, struct{}{})
	msg.WellID = wellID
	h.broadcastToRoom(wellID, msg, "")
}

func (h *Hub) sendSchematic(c *Client, w *schema.WellSchema, version int) {
	s, err := engine.Render(w, c.View())
	if err != nil {
		msg := newMessage(TypeError, ErrorPayload{Message: err.Error()})
		msg.Version = version
		c.Send(msg)
		return
	}
	msg := newMessage(TypeSchematicUpdated, SchematicPayload{Schematic: s})
	msg.WellID = c.WellID
	msg.Version = version
	c.Send(msg)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeViewUpdate:
		h.handleViewUpdate(sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handleViewUpdate(sender *Client, msg *Message) {
	var req ViewUpdatePayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "invalid view payload"}))
		return
	}
	opts, err := req.Options()
	if err != nil {
		sender.Send(newMessage(TypeError, ErrorPayload{Message: err.Error()}))
		return
	}
	sender.setView(opts)

	h.mu.RLock()
	room, ok := h.rooms[sender.WellID]
	var (
		w       *schema.WellSchema
		version int
	)
	if ok {
		w, version = room.well, room.version
	}
	h.mu.RUnlock()
	if !ok {
		return
	}

	h.sendSchematic(sender, w, version)
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	h.mu.RLock()
	room, ok := h.rooms[sender.WellID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.WellID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(wellID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[wellID]
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
