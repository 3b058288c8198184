package sse

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/logging"
)

// ErrHubClosed is returned by Subscribe after the hub has shut down.
var ErrHubClosed = errors.New("sse hub closed")

const keepAliveFrame = ": keep-alive\n\n"

// Hub fans domain events out to live dashboard connections, partitioned by
// topic. Delivery is best-effort and FIFO per subscriber: each subscription
// owns a bounded buffer drained by a dedicated write pump, so one slow or
// broken connection never delays its siblings or the publisher.
type Hub struct {
	logger *slog.Logger
	buffer int

	mu     sync.RWMutex
	reg    *registry
	closed bool
}

// NewHub constructs an empty hub. buffer is the per-subscriber frame buffer;
// values below 1 fall back to 1.
func NewHub(logger *slog.Logger, buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		logger: logging.NewComponentLogger(logger, "sse-hub"),
		buffer: buffer,
		reg:    newRegistry(),
	}
}

// Subscribe registers conn under the given topics and returns the
// subscription id. The returned done channel closes when the subscription
// ends, whether by Unsubscribe, idle eviction, write failure, or hub
// shutdown. Subscribe never blocks on the connection.
func (h *Hub) Subscribe(topics []string, conn Conn) (string, <-chan struct{}, error) {
	if len(topics) == 0 {
		return "", nil, errors.New("at least one topic is required")
	}

	sub := &subscriber{
		id:     uuid.NewString(),
		topics: append([]string{}, topics...),
		conn:   conn,
		send:   make(chan []byte, h.buffer),
		done:   make(chan struct{}),
	}
	sub.touch(time.Now())

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", nil, ErrHubClosed
	}
	h.reg.add(sub)
	h.mu.Unlock()

	go h.writePump(sub)

	h.logger.Debug("subscriber added",
		logging.String(logging.FieldSubscriberID, sub.id),
		logging.Int("topics", len(topics)))
	return sub.id, sub.done, nil
}

// Unsubscribe removes a subscription. Calling it twice, or with an unknown
// id, is safe and has no further effect.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.reg.remove(id)
	if ok {
		close(sub.send)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Debug("subscriber removed", logging.String(logging.FieldSubscriberID, id))
	}
}

// Broadcast delivers ev to every subscriber of any of its topics. Encoding
// happens once; enqueueing is non-blocking with drop-oldest, and write
// failures are isolated per subscriber. Broadcast never returns an error:
// the caller's mutation already succeeded and delivery is fire-and-forget.
func (h *Hub) Broadcast(ev event.Event) {
	topics := ev.Topics()
	if len(topics) == 0 {
		return
	}
	frame, err := ev.EncodeSSE()
	if err != nil {
		h.logger.Error("encode event failed",
			logging.String(logging.FieldEventType, string(ev.Type)),
			logging.Error(err))
		return
	}

	h.mu.RLock()
	for _, sub := range h.reg.collect(topics) {
		sub.enqueue(frame)
	}
	h.mu.RUnlock()
}

// KeepAlive enqueues a comment frame for every live subscriber so proxies
// keep connections open and dead ones surface as write failures.
func (h *Hub) KeepAlive() {
	h.mu.RLock()
	for _, sub := range h.reg.all() {
		sub.enqueue([]byte(keepAliveFrame))
	}
	h.mu.RUnlock()
}

// CleanupIdle force-closes every subscription whose last successful write is
// older than maxIdle and returns how many were removed.
func (h *Hub) CleanupIdle(maxIdle time.Duration) int {
	now := time.Now()

	h.mu.Lock()
	var stale []*subscriber
	for _, sub := range h.reg.all() {
		if sub.idleSince(now) > maxIdle {
			stale = append(stale, sub)
		}
	}
	for _, sub := range stale {
		h.reg.remove(sub.id)
		close(sub.send)
	}
	h.mu.Unlock()

	for _, sub := range stale {
		h.logger.Info("idle subscriber evicted",
			logging.String(logging.FieldSubscriberID, sub.id),
			logging.Duration("idle", sub.idleSince(now)))
	}
	return len(stale)
}

// TotalConnections returns the number of live subscriptions.
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.reg.byID)
}

// TopicCount returns the number of topics with at least one subscriber.
func (h *Hub) TopicCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.reg.byTopic)
}

// TopicCounts returns subscriber counts per topic for introspection.
func (h *Hub) TopicCounts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	counts := make(map[string]int, len(h.reg.byTopic))
	for topic, set := range h.reg.byTopic {
		counts[topic] = len(set)
	}
	return counts
}

// Close rejects new subscriptions and closes every live connection. It
// returns once all write pumps have been told to stop; no timers or handles
// remain afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.reg.all()
	for _, sub := range subs {
		h.reg.remove(sub.id)
		close(sub.send)
	}
	h.mu.Unlock()

	if len(subs) > 0 {
		h.logger.Info("hub closed", logging.Int("connections", len(subs)))
	}
}

// writePump drains a subscriber's buffer into its connection. The first
// write failure tears the subscription down; siblings are unaffected.
func (h *Hub) writePump(sub *subscriber) {
	defer close(sub.done)
	for frame := range sub.send {
		if _, err := sub.conn.Write(frame); err != nil {
			h.logger.Warn("subscriber write failed",
				logging.String(logging.FieldSubscriberID, sub.id),
				logging.Error(err))
			go h.Unsubscribe(sub.id)
			// Drain until Unsubscribe closes the channel.
			for range sub.send {
			}
			return
		}
		sub.conn.Flush()
		sub.touch(time.Now())
	}
}
