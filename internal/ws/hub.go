package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/metrics"
)

// Event represents a message pushed to subscribers.
type Event struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: b}, nil
}

type topicEvent struct {
	topic string
	event Event
}

const sendBuffer = 256

// Subscription receives every event published to its topics until
// Unsubscribe is called or the hub stops. C is closed in both cases.
type Subscription struct {
	hub    *Hub
	topics []string
	send   chan []byte
	once   sync.Once
}

func (s *Subscription) C() <-chan []byte { return s.send }

func (s *Subscription) Topics() []string { return s.topics }

// Unsubscribe detaches the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}

// Hub routes published events to the subscriptions of each topic.
type Hub struct {
	rooms map[string]map[*Subscription]bool

	register   chan *Subscription
	unregister chan *Subscription
	broadcast  chan *topicEvent
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Subscription]bool),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		broadcast:  make(chan *topicEvent, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every open subscription.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			h.mu.Lock()
			for _, topic := range sub.topics {
				if h.rooms[topic] == nil {
					h.rooms[topic] = make(map[*Subscription]bool)
				}
				h.rooms[topic][sub] = true
			}
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()

		case sub := <-h.unregister:
			h.mu.Lock()
			h.remove(sub)
			h.mu.Unlock()

		case te := <-h.broadcast:
			te.event.Topic = te.topic
			message, err := json.Marshal(te.event)
			if err != nil {
				logging.Error().Err(err).Str("topic", te.topic).Msg("marshal hub event")
				continue
			}

			h.mu.Lock()
			for sub := range h.rooms[te.topic] {
				select {
				case sub.send <- message:
				default:
					// Slow consumer: drop it rather than block the hub.
					h.remove(sub)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(sub *Subscription) {
	registered := false
	for _, topic := range sub.topics {
		clients, ok := h.rooms[topic]
		if !ok {
			continue
		}
		if _, exists := clients[sub]; exists {
			registered = true
			delete(clients, sub)
			if len(clients) == 0 {
				delete(h.rooms, topic)
			}
		}
	}
	if registered {
		close(sub.send)
		metrics.WebSocketConnections.Dec()
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	close(h.done)
	for _, clients := range h.rooms {
		for sub := range clients {
			h.remove(sub)
		}
	}
}

// Subscribe registers a subscription to one or more topics. After the hub
// has stopped it returns an already-closed subscription.
func (h *Hub) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		hub:    h,
		topics: topics,
		send:   make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.send)
	}
	return sub
}

// Publish queues event for every subscriber of topic. It never blocks once
// the hub has stopped.
func (h *Hub) Publish(topic string, event Event) {
	select {
	case h.broadcast <- &topicEvent{topic: topic, event: event}:
	case <-h.done:
	}
}
