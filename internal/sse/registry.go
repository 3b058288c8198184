package sse

import (
	"sync/atomic"
	"time"
)

// Conn is the transport half of a subscription: an SSE response stream in
// production, an in-memory buffer in tests.
type Conn interface {
	Write(p []byte) (int, error)
	Flush()
}

type subscriber struct {
	id     string
	topics []string
	conn   Conn
	send   chan []byte
	done   chan struct{}

	// lastActivity is unix nanos of the most recent successful write,
	// stamped by the write pump and read by the idle sweep.
	lastActivity atomic.Int64
}

func (s *subscriber) touch(now time.Time) {
	s.lastActivity.Store(now.UnixNano())
}

func (s *subscriber) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActivity.Load()))
}

// enqueue adds a frame to the subscriber's bounded buffer, discarding the
// oldest queued frame when full so the subscriber converges on recent state.
// Callers must hold the hub lock so enqueue never races subscriber close.
func (s *subscriber) enqueue(frame []byte) {
	for {
		select {
		case s.send <- frame:
			return
		default:
		}
		select {
		case <-s.send:
		default:
		}
	}
}

// registry is the in-memory directory of live subscriptions, keyed by topic.
// All mutation happens under the hub mutex.
type registry struct {
	byID    map[string]*subscriber
	byTopic map[string]map[string]*subscriber
}

func newRegistry() *registry {
	return &registry{
		byID:    make(map[string]*subscriber),
		byTopic: make(map[string]map[string]*subscriber),
	}
}

func (r *registry) add(sub *subscriber) {
	r.byID[sub.id] = sub
	for _, topic := range sub.topics {
		set, ok := r.byTopic[topic]
		if !ok {
			set = make(map[string]*subscriber)
			r.byTopic[topic] = set
		}
		set[sub.id] = sub
	}
}

// remove detaches a subscription and reports whether it was present.
func (r *registry) remove(id string) (*subscriber, bool) {
	sub, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	for _, topic := range sub.topics {
		set := r.byTopic[topic]
		delete(set, id)
		if len(set) == 0 {
			delete(r.byTopic, topic)
		}
	}
	return sub, true
}

// collect returns the distinct subscribers registered under any of topics.
func (r *registry) collect(topics []string) []*subscriber {
	seen := make(map[string]struct{})
	var subs []*subscriber
	for _, topic := range topics {
		for id, sub := range r.byTopic[topic] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			subs = append(subs, sub)
		}
	}
	return subs
}

func (r *registry) all() []*subscriber {
	subs := make([]*subscriber, 0, len(r.byID))
	for _, sub := range r.byID {
		subs = append(subs, sub)
	}
	return subs
}
