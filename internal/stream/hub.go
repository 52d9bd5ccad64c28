package stream

import (
	"context"
	"strings"
	"sync"
	"time"

	"backend-hikinghelper/internal/logging"
	"backend-hikinghelper/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	EventPreferencesUpdated = "preferences.updated"
	EventGoalUpdated        = "goal.updated"
	EventGoalDeleted        = "goal.deleted"

	channelPrefix  = "prefs:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Event tells a user's open clients that their data changed.
type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
	Data   any       `json:"data,omitempty"`
}

// envelope carries an event across instances. Origin lets a hub skip its
// own publications, which it has already delivered locally.
type envelope struct {
	Origin string          `json:"origin"`
	Event  json.RawMessage `json:"event"`
}

type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	logger  zerolog.Logger
}

type Client struct {
	UserID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
		logger:  logging.Component("stream"),
	}
	return h
}

// Run forwards events published by other instances until ctx is done. It is a
// no-op without Redis.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}
	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.forward(msg)
		}
	}
}

func (h *Hub) forward(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		h.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed event")
		return
	}
	if env.Origin == h.id {
		return
	}
	h.deliver(userIDFromChannel(msg.Channel), env.Event)
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	metrics.StreamClients.Inc()
	return client
}

// Unregister removes the client and closes its Send channel. Repeated calls
// are no-ops.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userClients := h.clients[client.UserID]
	if _, ok := userClients[client]; !ok {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
	metrics.StreamClients.Dec()
	close(client.Send)
}

// Connected reports how many clients are open for a user.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish delivers ev to the user's local clients and, when Redis is
// configured, to every other instance.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("type", ev.Type).Msg("encode event")
		return
	}
	h.deliver(ev.UserID, payload)

	if h.redis == nil {
		return
	}
	raw, err := json.Marshal(envelope{Origin: h.id, Event: payload})
	if err != nil {
		return
	}
	if err := h.redis.Publish(ctx, redisChannel(ev.UserID), raw).Err(); err != nil {
		h.logger.Warn().Err(err).Str("user_id", ev.UserID).Msg("redis publish failed")
	}
}

// Notify is a shorthand for publishing an event without a payload.
func (h *Hub) Notify(ctx context.Context, userID, eventType string) {
	h.Publish(ctx, Event{Type: eventType, UserID: userID})
}

func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			// slow client; it refetches on its next event
		}
	}
}

func redisChannel(userID string) string {
	return channelPrefix + userID + channelSuffix
}

// userIDFromChannel parses prefs:{user}:events.
func userIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
