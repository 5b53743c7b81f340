// Package runtime owns the live fan-out plumbing: room membership,
// broadcast and the optional cross-instance backplane. It carries no
// business logic or domain rules.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"peerchat/contract"
	"peerchat/domain/event"
)

type Set map[string]contract.EventSink

// Registry is the process-local room membership: chat id -> connection
// id -> sink. The mutex guards only in-memory bookkeeping, never a sink
// delivery: Broadcast snapshots the members under the read lock and
// delivers outside it, so a stalled connection cannot block membership
// changes in the same room.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]Set
	log     *slog.Logger
	evictor contract.Evictor
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]Set),
		log:   log,
	}
}

// WithEvictor wires the component that tears down a connection whose sink
// failed delivery. Set once during startup, before any broadcast.
func (r *Registry) WithEvictor(evictor contract.Evictor) *Registry {
	r.evictor = evictor
	return r
}

// Subscribe registers a connection's sink in a room's membership set.
// If the room does not yet exist in the registry, it is initialized on
// the fly. A message appended after Subscribe returns is guaranteed to
// reach the sink while it stays subscribed; anything earlier is only
// available through history.
func (r *Registry) Subscribe(chatID, connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[chatID]; !ok {
		r.rooms[chatID] = make(Set)
	}
	r.rooms[chatID][connID] = sink
}

// Unsubscribe removes the connection from the room and drops empty room
// sets entirely to prevent memory leaks over time.
func (r *Registry) Unsubscribe(chatID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[chatID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, chatID)
	}
}

// Broadcast delivers e to every member of the room except excludeConnID.
// Delivery is best effort per connection: a failing sink is logged and
// handed to the evictor, and the remaining members still receive the
// event.
func (r *Registry) Broadcast(ctx context.Context, chatID string, e event.DomainEvent, excludeConnID string) {
	type member struct {
		connID string
		sink   contract.EventSink
	}

	r.mu.RLock()
	members := make([]member, 0, len(r.rooms[chatID]))
	for connID, sink := range r.rooms[chatID] {
		if connID == excludeConnID {
			continue
		}
		members = append(members, member{connID: connID, sink: sink})
	}
	r.mu.RUnlock()

	for _, m := range members {
		if err := m.sink.Consume(ctx, e); err != nil {
			r.log.Warn("sink delivery failed, evicting connection",
				"chat_id", chatID,
				"conn_id", m.connID,
				"error", err)
			if r.evictor != nil {
				r.evictor.Evict(m.connID)
			}
		}
	}
}

// RoomCount reports how many rooms currently hold at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MemberCount reports the current members of one room.
func (r *Registry) MemberCount(chatID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[chatID])
}

// SubscriptionCount reports the total subscriptions across all rooms.
func (r *Registry) SubscriptionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, members := range r.rooms {
		total += len(members)
	}
	return total
}
