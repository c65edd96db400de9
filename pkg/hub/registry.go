package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/metrics"
)

// DefaultSubscriberBuffer is the per-subscriber channel depth. A
// subscriber that falls this many samples behind starts missing
// broadcasts and is eventually dropped.
const DefaultSubscriberBuffer = 16

// Subscriber is one live streaming connection's delivery channel. It is
// owned by the Registry for its lifetime and must be released with
// Unsubscribe when the connection ends.
type Subscriber struct {
	id uuid.UUID
	ch chan metrics.Sample
}

// C returns the receive side of the delivery channel. The channel is
// closed when the subscriber is unsubscribed or dropped.
func (s *Subscriber) C() <-chan metrics.Sample {
	return s.ch
}

// Registry is the thread-safe arena of live delivery channels. A single
// mutex guards all mutation and enumeration; delivery attempts are
// non-blocking, so the lock is never held waiting on a slow consumer.
//
// Fan-out is at-most-once and best-effort per subscriber: there is no
// backlog and no replay for late joiners. The store remains the durable
// record; the stream is a convenience live feed.
type Registry struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscriber
	buffer      int
	logger      *slog.Logger
	metrics     *Metrics
}

// NewRegistry creates an empty subscriber registry. bufferSize is the
// per-subscriber channel depth; values <= 0 use DefaultSubscriberBuffer.
func NewRegistry(bufferSize int, m *Metrics) *Registry {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	return &Registry{
		subscribers: make(map[uuid.UUID]*Subscriber),
		buffer:      bufferSize,
		logger:      slog.Default().With("component", "hub.registry"),
		metrics:     m,
	}
}

// Subscribe registers a new delivery channel and returns its handle.
// The subscriber receives every sample broadcast after this call
// returns, subject to the best-effort delivery contract.
func (r *Registry) Subscribe() *Subscriber {
	sub := &Subscriber{
		id: uuid.New(),
		ch: make(chan metrics.Sample, r.buffer),
	}

	r.mu.Lock()
	r.subscribers[sub.id] = sub
	count := len(r.subscribers)
	r.mu.Unlock()

	r.metrics.SetSubscribers(count)
	r.logger.Debug("subscriber registered", "subscriber_id", sub.id, "live", count)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Idempotent:
// unsubscribing an already-removed subscriber is a no-op, so a stream
// handler's deferred cleanup cannot double-free a subscriber that
// Broadcast already dropped.
func (r *Registry) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	r.mu.Lock()
	_, present := r.subscribers[sub.id]
	if present {
		delete(r.subscribers, sub.id)
		close(sub.ch)
	}
	count := len(r.subscribers)
	r.mu.Unlock()

	if present {
		r.metrics.SetSubscribers(count)
		r.logger.Debug("subscriber removed", "subscriber_id", sub.id, "live", count)
	}
}

// Broadcast attempts a non-blocking delivery of sample to every live
// subscriber. A subscriber whose channel is full is dropped from the
// registry as part of the same locked operation; the failure is never
// propagated to the caller.
func (r *Registry) Broadcast(sample metrics.Sample) {
	var dropped []uuid.UUID

	r.mu.Lock()
	for id, sub := range r.subscribers {
		select {
		case sub.ch <- sample:
			r.metrics.SampleDelivered()
		default:
			delete(r.subscribers, id)
			close(sub.ch)
			dropped = append(dropped, id)
		}
	}
	count := len(r.subscribers)
	r.mu.Unlock()

	for _, id := range dropped {
		r.metrics.SubscriberDropped()
		r.logger.Warn("dropped slow subscriber", "subscriber_id", id)
	}
	if len(dropped) > 0 {
		r.metrics.SetSubscribers(count)
	}
}

// Len returns the number of live subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}
