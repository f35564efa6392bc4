package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge links the local hub to a Redis pub/sub channel so that multiple
// API instances share one logical change feed. Local publishes go to both
// the hub and the channel; remote messages are injected into the hub only.
// Events published by this instance echo back on the channel and are
// suppressed by id so local subscribers see each event at most once.
type Bridge struct {
	hub     *Hub
	client  *redis.Client
	channel string
	logger  *zap.Logger

	mu   sync.Mutex
	seen *recentSet

	cancel context.CancelFunc
}

// NewBridge wires the hub to the given Redis channel.
func NewBridge(hub *Hub, client *redis.Client, channel string, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		hub:     hub,
		client:  client,
		channel: channel,
		logger:  logger,
		seen:    newRecentSet(1024),
	}
}

// Publish delivers the event locally and republishes it for other instances.
func (b *Bridge) Publish(ev Event) {
	b.mu.Lock()
	b.seen.Add(ev.ID)
	b.mu.Unlock()

	b.hub.Publish(ev)

	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("feed bridge marshal failed", zap.Error(err), zap.String("event_id", ev.ID))
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		// Remote fan-out is best effort; local subscribers already got the event.
		b.logger.Warn("feed bridge publish failed", zap.Error(err), zap.String("event_id", ev.ID))
	}
}

// Run consumes remote events until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, b.channel)

	go func() {
		defer pubsub.Close() //nolint:errcheck
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				b.logger.Warn("feed bridge receive failed", zap.Error(err))
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("feed bridge decode failed", zap.Error(err))
				continue
			}

			b.mu.Lock()
			duplicate := b.seen.Has(ev.ID)
			if !duplicate {
				b.seen.Add(ev.ID)
			}
			b.mu.Unlock()
			if duplicate {
				continue
			}

			b.hub.Publish(ev)
		}
	}()
}

// Stop terminates the remote consumer.
func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
}

// recentSet is a fixed-capacity set of recently seen event ids.
type recentSet struct {
	cap   int
	order []string
	items map[string]struct{}
}

func newRecentSet(capacity int) *recentSet {
	return &recentSet{cap: capacity, items: make(map[string]struct{}, capacity)}
}

func (s *recentSet) Has(id string) bool {
	_, ok := s.items[id]
	return ok
}

func (s *recentSet) Add(id string) {
	if _, ok := s.items[id]; ok {
		return
	}
	s.items[id] = struct{}{}
	s.order = append(s.order, id)
	if len(s.order) > s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
}
