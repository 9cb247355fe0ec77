package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisChannel is the pub/sub channel mirrored events are published to.
const RedisChannel = "teamdeck:events"

// Handler reacts to a published event. Handlers subscribed to a
// pre-mutation event (AddingTeam, AddingTeamMember, InvitingTeamMember)
// can veto the operation by returning an error.
type Handler func(ctx context.Context, event Event) error

// Bus publishes domain events to whoever is listening.
type Bus interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher is an in-process event bus. Handlers run synchronously in
// subscription order; the first handler error aborts the publish and is
// returned to the caller. When a Redis client is attached, every event
// is additionally mirrored to the teamdeck:events channel as JSON so
// out-of-process consumers can follow along. Mirroring is best effort
// and never fails a publish.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	rdb      *redis.Client
}

// NewDispatcher creates an event dispatcher. rdb may be nil to disable
// the Redis mirror.
func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		rdb:      rdb,
	}
}

// Subscribe registers a handler for the named event.
func (d *Dispatcher) Subscribe(name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], handler)
}

// Publish delivers the event to every subscribed handler, then mirrors
// it to Redis.
func (d *Dispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := d.handlers[event.Name()]
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}

	d.mirror(ctx, event)
	return nil
}

type envelope struct {
	Name    string `json:"name"`
	Payload Event  `json:"payload"`
}

func (d *Dispatcher) mirror(ctx context.Context, event Event) {
	if d.rdb == nil {
		return
	}

	data, err := json.Marshal(envelope{Name: event.Name(), Payload: event})
	if err != nil {
		log.WithError(err).WithField("event", event.Name()).Warn("⚠️ Failed to encode event for mirror")
		return
	}

	if err := d.rdb.Publish(ctx, RedisChannel, data).Err(); err != nil {
		log.WithError(err).WithField("event", event.Name()).Warn("⚠️ Failed to mirror event to redis")
	}
}
