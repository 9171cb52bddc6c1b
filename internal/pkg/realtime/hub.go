package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/pkg/metrics"
)

// Options tunes connection handling
type Options struct {
	// AuthTimeout closes connections that have not authenticated in time
	AuthTimeout time.Duration
	// SendBuffer is the per-connection outbound queue length
	SendBuffer int
	// MaxMessageSize limits inbound frames
	MaxMessageSize int64
	// AllowedOrigins lists browser origins allowed to upgrade; "*" allows all
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = maxMessageSize
	}
	return o
}

// Hub tracks the connections of this instance and their room memberships.
// Room fan-out always goes through the broker so every instance sees it.
type Hub struct {
	// Registered clients
	clients map[*Client]struct{}

	// Room name -> member connections
	rooms map[string]map[*Client]struct{}

	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	// Guards clients, rooms and every client's rooms set
	mu sync.RWMutex

	broker  Broker
	options Options
	logger  zerolog.Logger
}

// NewHub creates a new Hub publishing through broker
func NewHub(broker Broker, options Options, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		broker:     broker,
		options:    options.withDefaults(),
		logger:     logger,
	}
}

// Start subscribes to the broker and runs the registration loop until ctx ends
func (h *Hub) Start(ctx context.Context) error {
	if err := h.broker.Subscribe(ctx, h.deliver); err != nil {
		return fmt.Errorf("subscribe hub to broker: %w", err)
	}
	go h.run(ctx)
	return nil
}

func (h *Hub) run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			return
		}
	}
}

// shutdown closes every connection's queue so write pumps send a close frame
func (h *Hub) shutdown() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for client := range h.clients {
			h.detachLocked(client)
		}
		h.logger.Info().Msg("Realtime hub stopped")
	})
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds a new connection. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	return h.addClient(client)
}

// Unregister removes a connection; calling it more than once is harmless
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}

	h.clients[client] = struct{}{}
	metrics.SocketConnections.Inc()

	h.logger.Debug().
		Str("connID", client.id).
		Str("addr", client.remoteAddr()).
		Msg("Client registered")
	return true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.detachLocked(client) {
		h.logger.Debug().
			Str("connID", client.id).
			Int64("userID", client.UserID()).
			Msg("Client unregistered")
	}
}

// detachLocked drops client from every room and closes its queue. Caller holds h.mu.
func (h *Hub) detachLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}

	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	delete(h.clients, client)
	close(client.send)
	metrics.SocketConnections.Dec()
	return true
}

func (h *Hub) leaveLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	delete(client.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Join adds a registered client to room
func (h *Hub) Join(client *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
	return true
}

// Leave removes client from room
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, room)
}

// SendTo queues an event for one local connection only
func (h *Hub) SendTo(client *Client, event string, payload interface{}) error {
	data, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	_, registered := h.clients[client]
	queued := false
	if registered {
		select {
		case client.send <- data:
			queued = true
		default:
		}
	}
	h.mu.RUnlock()

	if registered && !queued {
		h.dropSlow(client)
	}
	if queued {
		metrics.SocketEvents.WithLabelValues(event, "out").Inc()
	}
	return nil
}

// Publish fans an event out to room across all instances, skipping the
// connection excludeConnID when set.
func (h *Hub) Publish(ctx context.Context, room, event string, payload interface{}, excludeConnID string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	return h.broker.Publish(ctx, Envelope{
		Room:          room,
		Event:         event,
		Payload:       raw,
		ExcludeConnID: excludeConnID,
	})
}

// EmitToUser sends event to every connection of userID
func (h *Hub) EmitToUser(ctx context.Context, userID int64, event string, payload interface{}) error {
	return h.Publish(ctx, UserRoom(userID), event, payload, "")
}

// EmitToConversation sends event to every connection viewing the conversation
func (h *Hub) EmitToConversation(ctx context.Context, conversationID int64, event string, payload interface{}) error {
	return h.Publish(ctx, ConversationRoom(conversationID), event, payload, "")
}

// LeaveUser removes every connection of userID from room on all instances
func (h *Hub) LeaveUser(ctx context.Context, userID int64, room string) error {
	return h.broker.Publish(ctx, Envelope{Room: room, EvictUserID: userID})
}

// EvictFromConversation stops userID's connections receiving the conversation's events
func (h *Hub) EvictFromConversation(ctx context.Context, userID, conversationID int64) error {
	return h.LeaveUser(ctx, userID, ConversationRoom(conversationID))
}

// evict drops the local connections of userID from room
func (h *Hub) evict(room string, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for client := range h.rooms[room] {
		if client.UserID() == userID {
			h.leaveLocked(client, room)
			evicted++
		}
	}

	if evicted > 0 {
		h.logger.Debug().
			Str("room", room).
			Int64("userID", userID).
			Int("connections", evicted).
			Msg("Evicted user from room")
	}
}

// deliver writes an envelope to the local members of its room
func (h *Hub) deliver(env Envelope) {
	if env.EvictUserID != 0 {
		h.evict(env.Room, env.EvictUserID)
		return
	}

	data, err := json.Marshal(Frame{Event: env.Event, Data: env.Payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event", env.Event).Msg("Failed to encode frame")
		return
	}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for client := range h.rooms[env.Room] {
		if env.ExcludeConnID != "" && client.id == env.ExcludeConnID {
			continue
		}
		select {
		case client.send <- data:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.dropSlow(client)
	}

	if delivered > 0 {
		metrics.SocketEvents.WithLabelValues(env.Event, "out").Add(float64(delivered))
	}
}

// dropSlow disconnects a client whose queue is full
func (h *Hub) dropSlow(client *Client) {
	h.mu.Lock()
	dropped := h.detachLocked(client)
	h.mu.Unlock()

	if dropped {
		metrics.SlowClientsDropped.Inc()
		h.logger.Warn().
			Str("connID", client.id).
			Int64("userID", client.UserID()).
			Msg("Dropped slow client")
	}
}

// ClientCount returns the number of local connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of local connections in room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
