package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/authz"
	"github.com/campushub/campus-api/internal/models"
)

// Event is one inserted row delivered over the change feed. Meta carries the
// access attributes so the ownership predicate can be re-evaluated per
// subscriber without touching the store.
type Event struct {
	ID         string           `json:"id"`
	Collection authz.Collection `json:"collection"`
	Meta       models.AccessMeta `json:"meta"`
	Payload    json.RawMessage  `json:"payload"`
	InsertedAt time.Time        `json:"inserted_at"`
}

// Access implements authz.Row so events run through the same predicate as
// store reads.
func (e Event) Access() models.AccessMeta { return e.Meta }

// NewEvent builds an event from a freshly inserted row.
func NewEvent(collection authz.Collection, row authz.Row) (Event, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Collection: collection,
		Meta:       row.Access(),
		Payload:    payload,
		InsertedAt: time.Now().UTC(),
	}, nil
}

// Publisher accepts inserted-row events for fan-out.
type Publisher interface {
	Publish(Event)
}

// Metrics receives delivery counters from the hub. Implemented by the
// metrics service; a nil Metrics disables instrumentation.
type Metrics interface {
	FeedSubscribers(delta int)
	FeedDelivered()
	FeedDropped()
}

// Subscription is one consumer's handle on a collection feed. Events arrive
// on C in publish order; a consumer that falls behind its buffer loses its
// own events only and never blocks other subscribers.
type Subscription struct {
	C <-chan Event

	hub        *Hub
	collection authz.Collection
	caller     authz.Caller
	ch         chan Event

	mu     sync.Mutex
	closed bool
}

// Close detaches the subscription. Idempotent; after Close no further
// events are delivered and C is closed.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// deliver hands ev to the subscriber unless it has closed or its buffer is
// full. The lock excludes a concurrent shutdown, so the send can never hit
// a closed channel.
func (s *Subscription) deliver(ev Event) (delivered, dropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, false
	}
	select {
	case s.ch <- ev:
		return true, false
	default:
		return false, true
	}
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Hub is the in-process change feed dispatcher: many subscribers per
// collection, each independently filtered through the ownership predicate.
// Delivery is at-most-once; reconnecting subscribers must re-list to
// reconcile anything missed while away.
type Hub struct {
	buffer  int
	logger  *zap.Logger
	metrics Metrics

	mu     sync.RWMutex
	subs   map[authz.Collection]map[*Subscription]struct{}
	closed bool
}

// NewHub constructs a hub with the given per-subscriber buffer size.
func NewHub(buffer int, logger *zap.Logger, metrics Metrics) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		buffer: buffer,
		logger: logger,
		metrics: metrics,
		subs:   make(map[authz.Collection]map[*Subscription]struct{}),
	}
}

// Subscribe attaches caller to the live feed of collection. Only rows the
// caller is authorized to read are delivered, starting from subscription
// time; there is no replay.
func (h *Hub) Subscribe(collection authz.Collection, caller authz.Caller) *Subscription {
	sub := &Subscription{
		hub:        h,
		collection: collection,
		caller:     caller,
		ch:         make(chan Event, h.buffer),
	}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.shutdown()
		return sub
	}
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*Subscription]struct{})
	}
	h.subs[collection][sub] = struct{}{}
	if h.metrics != nil {
		h.metrics.FeedSubscribers(1)
	}
	h.logger.Debug("feed subscribe",
		zap.String("collection", string(collection)),
		zap.String("caller", caller.ID),
	)
	return sub
}

// Publish fans the event out to every authorized subscriber of its
// collection. The ownership predicate runs per subscriber per event; a full
// subscriber buffer drops the event for that subscriber only. A subscriber
// closing mid-publish simply stops receiving; the publish carries on.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs[ev.Collection]))
	for sub := range h.subs[ev.Collection] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if !authz.CanRead(ev.Collection, sub.caller, ev) {
			continue
		}
		delivered, dropped := sub.deliver(ev)
		switch {
		case delivered:
			if h.metrics != nil {
				h.metrics.FeedDelivered()
			}
		case dropped:
			if h.metrics != nil {
				h.metrics.FeedDropped()
			}
			h.logger.Warn("feed event dropped for slow subscriber",
				zap.String("collection", string(ev.Collection)),
				zap.String("caller", sub.caller.ID),
				zap.String("event_id", ev.ID),
			)
		}
	}
}

// Close shuts the hub down and closes every subscription channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.subs {
		for sub := range subs {
			sub.shutdown()
			if h.metrics != nil {
				h.metrics.FeedSubscribers(-1)
			}
		}
	}
	h.subs = make(map[authz.Collection]map[*Subscription]struct{})
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[sub.collection]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.subs, sub.collection)
			}
			if h.metrics != nil {
				h.metrics.FeedSubscribers(-1)
			}
		}
	}
	sub.shutdown()
}
