// Package pubsub provides the in-process publish/subscribe channel used to
// fan domain events out to live subscription streams.
package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/libris-app/libris-server/internal/id"
)

// Topics for domain events.
const (
	// TopicBookAdded is published for every book created through the API.
	// The payload carries the new book together with its author.
	TopicBookAdded = "book-added"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing events rather than blocking
// publishers.
const subscriberBuffer = 64

// Broadcaster delivers published payloads to every subscriber currently
// registered on the same topic. There is no replay: a payload published
// while no subscribers are attached is dropped, and a subscriber that
// joins later never sees it.
type Broadcaster interface {
	// Publish delivers payload to all current subscribers of topic.
	Publish(topic string, payload any)
	// Subscribe registers a new subscriber on topic. The returned channel
	// is closed and the subscriber deregistered when ctx is canceled.
	Subscribe(ctx context.Context, topic string) (<-chan any, error)
}

// Hub is the process-lifetime Broadcaster implementation. It is handed to
// the resolver engine at construction so tests can substitute a double.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	topics map[string]map[string]*subscriber
	closed bool
}

type subscriber struct {
	id          string
	ch          chan any
	connectedAt time.Time
}

// NewHub creates a new broadcaster hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		logger: logger,
		topics: make(map[string]map[string]*subscriber),
	}
}

// Publish implements Broadcaster. Delivery is non-blocking per subscriber:
// a subscriber whose buffer is full loses the event, which is logged.
func (h *Hub) Publish(topic string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	var delivered, dropped int
	for _, sub := range h.topics[topic] {
		select {
		case sub.ch <- payload:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped event for slow subscriber",
				slog.String("subscriber_id", sub.id),
				slog.String("topic", topic))
		}
	}

	h.logger.Debug("event published",
		slog.String("topic", topic),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// Subscribe implements Broadcaster. The subscription lives until ctx is
// canceled (client disconnect), at which point the delivery slot is
// released and the channel closed.
func (h *Hub) Subscribe(ctx context.Context, topic string) (<-chan any, error) {
	subID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	sub := &subscriber{
		id:          subID,
		ch:          make(chan any, subscriberBuffer),
		connectedAt: time.Now(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, nil
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]*subscriber)
	}
	h.topics[topic][sub.id] = sub
	total := len(h.topics[topic])
	h.mu.Unlock()

	h.logger.Info("subscriber connected",
		slog.String("subscriber_id", sub.id),
		slog.String("topic", topic),
		slog.Int("topic_subscribers", total))

	go func() {
		<-ctx.Done()
		h.unsubscribe(topic, sub)
	}()

	return sub.ch, nil
}

// unsubscribe removes a subscriber and closes its channel.
func (h *Hub) unsubscribe(topic string, sub *subscriber) {
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := subs[sub.id]; !ok {
		// Already removed by Close.
		h.mu.Unlock()
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	h.mu.Unlock()

	close(sub.ch)

	h.logger.Info("subscriber disconnected",
		slog.String("subscriber_id", sub.id),
		slog.String("topic", topic),
		slog.Duration("duration", time.Since(sub.connectedAt)))
}

// SubscriberCount returns the number of subscribers on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close disconnects all subscribers and rejects further publishes.
// Used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for topic, subs := range h.topics {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(h.topics, topic)
	}

	h.logger.Info("broadcaster closed")
}

// Noop is a Broadcaster that drops everything. Useful for tools and tests
// that need a store wired up without live delivery.
type Noop struct{}

// Publish implements Broadcaster as a no-op.
func (Noop) Publish(string, any) {}

// Subscribe implements Broadcaster with a channel that never delivers and
// closes when ctx is canceled.
func (Noop) Subscribe(ctx context.Context, _ string) (<-chan any, error) {
	ch := make(chan any)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
